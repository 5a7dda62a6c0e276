package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout marks a fetch attempt that exceeded its deadline. Soft per
// attempt: the aggregator moves to the next hour, the aircraft client to the
// next attempt while budget remains.
var ErrTimeout = errors.New("fetch deadline exceeded")

// ErrRetriesExhausted is the fallback for the aircraft client's attempt loop
// finishing without an explicit return. The decision table should make that
// unreachable, so hitting it is itself a defect worth surfacing loudly.
var ErrRetriesExhausted = errors.New("retry budget exhausted without a terminal outcome")

// ErrNoUsableData is returned when an aggregation run produced zero balloon
// records and at least one hour failed. An empty result with zero failures is
// a valid "no data this period" outcome, not an error.
var ErrNoUsableData = errors.New("no balloon data retrieved and some hourly fetches failed")

// StatusError reports a non-2xx response from an upstream source.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// Retryable reports whether the status indicates a transient server-side
// condition. Client errors (4xx) are never retried.
func (e *StatusError) Retryable() bool { return e.Status >= 500 }

// IsTimeout reports whether err represents a deadline-exceeded attempt, in
// any of the forms the net/http stack produces one.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
