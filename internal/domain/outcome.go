package domain

import (
	"errors"
	"fmt"
)

// OutcomeKind tags the result of one hourly fetch.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeMalformed OutcomeKind = "malformed" // payload present but unparseable; soft, zero records
	OutcomeHTTPError OutcomeKind = "http_error"
	OutcomeTimeout   OutcomeKind = "timeout"
	OutcomeNetwork   OutcomeKind = "network_error"
)

// FetchOutcome records what happened to a single hour of balloon history.
// Outcomes feed the run's failure report; they are never persisted.
type FetchOutcome struct {
	Hour    string      `json:"hour"`
	Kind    OutcomeKind `json:"kind"`
	Status  int         `json:"status,omitempty"`
	Detail  string      `json:"detail,omitempty"`
	Records int         `json:"records"`
}

// Failed reports whether the hour counts toward the run's failure flag.
// A malformed payload is a soft condition: the hour contributes zero records
// but the run is not marked failed by it.
func (o FetchOutcome) Failed() bool {
	switch o.Kind {
	case OutcomeHTTPError, OutcomeTimeout, OutcomeNetwork:
		return true
	}
	return false
}

// Message renders the outcome as a diagnostic line for the error list, e.g.
// "hour 07: status 503" or "hour 07: fetch timeout".
func (o FetchOutcome) Message() string {
	switch o.Kind {
	case OutcomeHTTPError:
		return fmt.Sprintf("hour %s: status %d", o.Hour, o.Status)
	case OutcomeTimeout:
		return fmt.Sprintf("hour %s: fetch timeout", o.Hour)
	case OutcomeNetwork:
		return fmt.Sprintf("hour %s: fetch error (%s)", o.Hour, o.Detail)
	case OutcomeMalformed:
		return fmt.Sprintf("hour %s: malformed payload", o.Hour)
	}
	return fmt.Sprintf("hour %s: ok (%d records)", o.Hour, o.Records)
}

// ClassifyFetchError maps a fetch error to the outcome for its hour.
func ClassifyFetchError(hour string, err error) FetchOutcome {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return FetchOutcome{Hour: hour, Kind: OutcomeHTTPError, Status: se.Status, Detail: se.Body}
	case IsTimeout(err):
		return FetchOutcome{Hour: hour, Kind: OutcomeTimeout}
	default:
		return FetchOutcome{Hour: hour, Kind: OutcomeNetwork, Detail: err.Error()}
	}
}
