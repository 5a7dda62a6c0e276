package opensky

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/observability"
)

const maxErrorBody = 256

// Options configure the aircraft feed client.
type Options struct {
	BaseURL string
	Timeout time.Duration // per attempt
	Retries int           // retries after the first attempt
	Backoff time.Duration // linear backoff unit between attempts
}

// Client fetches live aircraft states for a bounding box, with bounded
// retry. Up to 1+Retries sequential attempts; before retry n the client
// waits n×Backoff. Per attempt:
//
//   - 2xx: parse and return immediately.
//   - 4xx: return immediately, client errors are not transient.
//   - 5xx: retry while budget remains; on the final attempt return that
//     status, not a generic error.
//   - timeout / transport failure: retry while budget remains; a timeout on
//     the final attempt returns ErrTimeout.
type Client struct {
	opts       Options
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an aircraft feed client. The clock drives backoff
// sleeps, so tests can keep them deterministic.
func NewClient(opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		opts:       opts,
		httpClient: &http.Client{},
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchStates retrieves all airborne aircraft inside the box.
func (c *Client) FetchStates(ctx context.Context, box domain.BoundingBox) ([]domain.AircraftRecord, error) {
	attempts := c.opts.Retries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		final := attempt == attempts

		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.opts.Backoff
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry wait: %w", ctx.Err())
			case <-c.clock.After(delay):
			}
		}

		records, err := c.fetchOnce(ctx, box)
		if err == nil {
			c.metrics.AircraftAttempts.WithLabelValues("success").Inc()
			return records, nil
		}

		var se *domain.StatusError
		switch {
		case errors.As(err, &se):
			c.metrics.AircraftAttempts.WithLabelValues("http_error").Inc()
			if !se.Retryable() || final {
				return nil, err
			}
		case domain.IsTimeout(err):
			c.metrics.AircraftAttempts.WithLabelValues("timeout").Inc()
			if final {
				return nil, fmt.Errorf("aircraft feed attempt exceeded %s: %w", c.opts.Timeout, domain.ErrTimeout)
			}
		default:
			c.metrics.AircraftAttempts.WithLabelValues("network_error").Inc()
			if final {
				return nil, fmt.Errorf("aircraft feed failed after %d attempts: %w", attempts, err)
			}
		}

		c.logger.Warn("aircraft fetch attempt failed, retrying",
			"attempt", attempt, "of", attempts, "error", err)
	}

	// The decision table above always returns from the final attempt.
	// Reaching this is a defect to surface, not swallow.
	return nil, domain.ErrRetriesExhausted
}

// fetchOnce performs a single bounded-deadline attempt.
func (c *Client) fetchOnce(ctx context.Context, box domain.BoundingBox) ([]domain.AircraftRecord, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	params := url.Values{
		"lamin": {formatCoord(box.MinLat)},
		"lomin": {formatCoord(box.MinLon)},
		"lamax": {formatCoord(box.MaxLat)},
		"lomax": {formatCoord(box.MaxLon)},
	}
	u := c.opts.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aircraft feed request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read aircraft feed body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.StatusError{Status: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}

	return domain.ParseAircraftStates(body)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
