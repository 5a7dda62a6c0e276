package windborne

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientFetchHour(t *testing.T) {
	t.Run("requests the hour file and returns the body", func(t *testing.T) {
		var gotPath, gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAccept = r.Header.Get("Accept")
			w.Write([]byte(`[[1, 2, 3]]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 0, discardLogger())
		body, err := c.FetchHour(context.Background(), "07")

		require.NoError(t, err)
		assert.Equal(t, "/07.json", gotPath)
		assert.Equal(t, "application/json", gotAccept)
		assert.JSONEq(t, `[[1, 2, 3]]`, string(body))
	})

	t.Run("non-2xx yields a status error with truncated body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "service melting", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 0, discardLogger())
		_, err := c.FetchHour(context.Background(), "07")

		var se *domain.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusServiceUnavailable, se.Status)
		assert.Contains(t, se.Body, "service melting")
	})

	t.Run("context deadline surfaces as a timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 0, discardLogger())
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.FetchHour(ctx, "07")

		require.Error(t, err)
		assert.True(t, domain.IsTimeout(err))
	})

	t.Run("expired context fails the rate limit wait", func(t *testing.T) {
		c := NewClient("http://unused", 0.001, discardLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.FetchHour(ctx, "07")
		assert.Error(t, err)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab", truncate([]byte("abcdef"), 2))
}
