package windborne

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

// maxErrorBody bounds how much of an upstream error body is kept in the
// diagnostic detail.
const maxErrorBody = 256

// Fetcher retrieves one hour's raw snapshot body.
type Fetcher interface {
	FetchHour(ctx context.Context, hour string) ([]byte, error)
}

// Client fetches hourly balloon snapshot files from the constellation
// endpoint: GET <baseURL>/<HH>.json. Timeouts come from the caller's
// context, one deadline per fetch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter // nil when unlimited
	logger     *slog.Logger
}

// NewClient creates a snapshot client. ratePerSec caps outbound request
// rate across the 24-hour sweep; pass 0 for no limit.
func NewClient(baseURL string, ratePerSec float64, logger *slog.Logger) *Client {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		limiter:    limiter,
		logger:     logger,
	}
}

// FetchHour retrieves the raw body for one hour label. Non-2xx responses
// become a StatusError carrying the status and a truncated body.
func (c *Client) FetchHour(ctx context.Context, hour string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, hour)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch hour %s: %w", hour, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hour %s body: %w", hour, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.StatusError{Status: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
