// Command probe runs one aggregation and aircraft fetch against the
// configured endpoints and prints the results as JSON. Useful as a smoke
// check to distinguish "upstream is down" from "upstream has no data"
// without starting the service.
//
// Usage:
//
//	BALLOON_ENDPOINT=http://localhost:9000 go run ./cmd/probe
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/quietpetrel/stratowatch/internal/adapter/opensky"
	"github.com/quietpetrel/stratowatch/internal/adapter/windborne"
	"github.com/quietpetrel/stratowatch/internal/config"
	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/observability"
	"github.com/quietpetrel/stratowatch/internal/pipeline"
)

// probeResult is the printed summary; errors are carried as text so the
// output is always valid JSON.
type probeResult struct {
	Report        domain.BalloonReport    `json:"report"`
	ReportError   string                  `json:"report_error,omitempty"`
	Bounds        *domain.BoundingBox     `json:"bounds,omitempty"`
	Aircraft      []domain.AircraftRecord `json:"aircraft,omitempty"`
	AircraftError string                  `json:"aircraft_error,omitempty"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Keep probe output clean; diagnostics are in the printed JSON.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()

	fetcher := windborne.NewClient(cfg.BalloonEndpoint, cfg.BalloonRateLimit, logger)
	normalizer := domain.Normalizer{Source: cfg.BalloonSourceLabel, Region: cfg.RegionBox()}
	aggregator := pipeline.NewAggregator(fetcher, normalizer, cfg.BalloonTimeout, cfg.BalloonResultCap, logger, metrics)

	ctx := context.Background()

	var result probeResult
	report, err := aggregator.Aggregate(ctx)
	result.Report = report
	if err != nil {
		result.ReportError = err.Error()
		return printResult(result)
	}

	bounds := domain.ComputeBounds(report.Balloons, cfg.BoundsPadding)
	result.Bounds = bounds
	if bounds == nil {
		return printResult(result)
	}

	aircraft := opensky.NewClient(opensky.Options{
		BaseURL: cfg.AircraftEndpoint,
		Timeout: cfg.AircraftTimeout,
		Retries: cfg.AircraftRetries,
		Backoff: cfg.AircraftBackoff,
	}, clock, logger, metrics)

	states, err := aircraft.FetchStates(ctx, *bounds)
	result.Aircraft = states
	if err != nil {
		result.AircraftError = err.Error()
	}
	return printResult(result)
}

func printResult(result probeResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
