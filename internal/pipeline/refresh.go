package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/observability"
	"github.com/quietpetrel/stratowatch/internal/store"
)

// ErrRefreshInFlight is returned when a refresh is requested while another
// one holds the run.
var ErrRefreshInFlight = errors.New("a refresh cycle is already running")

// AircraftFetcher retrieves the live aircraft set for a bounding box.
type AircraftFetcher interface {
	FetchStates(ctx context.Context, box domain.BoundingBox) ([]domain.AircraftRecord, error)
}

// SnapshotPublisher forwards a completed balloon report downstream.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, report domain.BalloonReport) error
}

// Refresher runs one full refresh cycle: aggregate 24 hours of balloon
// history, derive the aircraft query box from the result, fetch aircraft
// states, and store both sets for the API. At most one cycle runs at a time.
type Refresher struct {
	aggregator *Aggregator
	aircraft   AircraftFetcher
	snapshots  *store.Memory
	publisher  SnapshotPublisher // nil disables publishing
	padding    float64
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	running    atomic.Bool
}

// NewRefresher wires a Refresher. publisher may be nil.
func NewRefresher(aggregator *Aggregator, aircraft AircraftFetcher, snapshots *store.Memory, publisher SnapshotPublisher, padding float64, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		aggregator: aggregator,
		aircraft:   aircraft,
		snapshots:  snapshots,
		publisher:  publisher,
		padding:    padding,
		logger:     logger,
		metrics:    metrics,
	}
}

// Running reports whether a refresh cycle is currently in flight.
func (r *Refresher) Running() bool { return r.running.Load() }

// CheckReadiness returns nil once at least one refresh cycle has completed.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no refresh cycle has completed yet")
	}
	return nil
}

// Refresh executes one cycle synchronously. Balloon hard failures and
// aircraft retry exhaustion are surfaced to the caller; both still leave
// their diagnostics in the store for the API.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer r.running.Store(false)
	return r.cycle(ctx)
}

// Begin claims the single-flight slot and runs the cycle in the background,
// so a caller can distinguish "started" from "already running" without
// waiting for completion. Cycle errors are logged, not returned.
func (r *Refresher) Begin(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	go func() {
		defer r.running.Store(false)
		if err := r.cycle(ctx); err != nil {
			r.logger.Error("background refresh failed", "error", err)
		}
	}()
	return nil
}

func (r *Refresher) cycle(ctx context.Context) error {
	r.metrics.RefreshRunning.Set(1)
	defer r.metrics.RefreshRunning.Set(0)
	start := time.Now()

	report, err := r.aggregator.Aggregate(ctx)
	r.snapshots.SetBalloonReport(report, err)
	if err != nil {
		r.logger.Error("balloon aggregation failed", "error", err)
		return err
	}
	r.logger.Info("balloon aggregation complete",
		"balloons", len(report.Balloons),
		"total_found", report.TotalFound,
		"any_failed", report.AnyFailed,
	)

	bounds := domain.ComputeBounds(report.Balloons, r.padding)
	if bounds == nil {
		// No data, no box: skip the dependent fetch rather than query a
		// fallback region.
		r.logger.Info("no balloon data this period, skipping aircraft fetch")
		r.snapshots.SetAircraft(nil, nil)
		r.finish(start)
		return nil
	}

	aircraft, err := r.aircraft.FetchStates(ctx, *bounds)
	r.snapshots.SetAircraft(aircraft, err)
	if err != nil {
		r.logger.Error("aircraft fetch failed", "error", err, "box", *bounds)
		r.finish(start)
		return err
	}
	r.metrics.AircraftTracked.Set(float64(len(aircraft)))
	r.logger.Info("aircraft fetch complete", "aircraft", len(aircraft))

	r.publish(ctx, report)
	r.finish(start)
	return nil
}

// publish forwards the report when a publisher is configured. Publish
// failures are logged, never escalated: the store already has the data.
func (r *Refresher) publish(ctx context.Context, report domain.BalloonReport) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishSnapshot(ctx, report); err != nil {
		r.logger.Warn("snapshot publish failed", "error", err)
		return
	}
	r.metrics.SnapshotsPublished.Inc()
}

func (r *Refresher) finish(start time.Time) {
	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	r.ready.Store(true)
}
