package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/quietpetrel/stratowatch/internal/adapter/http"
	kafkaadapter "github.com/quietpetrel/stratowatch/internal/adapter/kafka"
	"github.com/quietpetrel/stratowatch/internal/adapter/opensky"
	"github.com/quietpetrel/stratowatch/internal/adapter/windborne"
	"github.com/quietpetrel/stratowatch/internal/config"
	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/observability"
	"github.com/quietpetrel/stratowatch/internal/pipeline"
	"github.com/quietpetrel/stratowatch/internal/scheduler"
	"github.com/quietpetrel/stratowatch/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Balloon history source, with the hourly snapshot cache in front.
	var hourFetcher pipeline.HourFetcher = windborne.NewClient(cfg.BalloonEndpoint, cfg.BalloonRateLimit, logger)
	if cfg.BalloonCacheTTL > 0 {
		hourFetcher = windborne.NewCachedFetcher(hourFetcher, cfg.BalloonCacheTTL, clock, metrics)
	}

	normalizer := domain.Normalizer{
		Source: cfg.BalloonSourceLabel,
		Region: cfg.RegionBox(),
	}
	aggregator := pipeline.NewAggregator(hourFetcher, normalizer, cfg.BalloonTimeout, cfg.BalloonResultCap, logger, metrics)

	aircraft := opensky.NewClient(opensky.Options{
		BaseURL: cfg.AircraftEndpoint,
		Timeout: cfg.AircraftTimeout,
		Retries: cfg.AircraftRetries,
		Backoff: cfg.AircraftBackoff,
	}, clock, logger, metrics)

	// Optional snapshot publishing (feature-flagged via KAFKA_ENABLED).
	var publisher pipeline.SnapshotPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	snapshots := store.NewMemory()
	refresher := pipeline.NewRefresher(aggregator, aircraft, snapshots, publisher, cfg.BoundsPadding, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, snapshots, refresher, refresher, logger)
	sched := scheduler.New(refresher, cfg.RefreshInterval, refreshDeadline(cfg), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the store immediately instead of waiting one full interval.
	go func() {
		refreshCtx, cancel := context.WithTimeout(ctx, refreshDeadline(cfg))
		defer cancel()
		if err := refresher.Refresh(refreshCtx); err != nil {
			logger.Error("initial refresh failed", "error", err)
		}
	}()

	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// refreshDeadline bounds one whole refresh cycle: 24 sequential hourly
// fetches, the aircraft retry budget with its backoff waits, plus slack.
func refreshDeadline(cfg *config.Config) time.Duration {
	attempts := cfg.AircraftRetries + 1
	backoffTotal := time.Duration(cfg.AircraftRetries*(cfg.AircraftRetries+1)/2) * cfg.AircraftBackoff
	return 24*cfg.BalloonTimeout + time.Duration(attempts)*cfg.AircraftTimeout + backoffTotal + time.Minute
}
