package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"bogus", slog.LevelInfo, slog.LevelDebug},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger := NewLogger(tc.level, "json")
			assert.True(t, logger.Enabled(context.Background(), tc.enabled))
			assert.False(t, logger.Enabled(context.Background(), tc.muted))
		})
	}
}

func TestNewMetricsForTestingIsIsolated(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	a.SnapshotsPublished.Inc()
	b.DedupDropped.Add(3)
}
