package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/observability"
)

// HourFetcher retrieves the raw snapshot body for one hour label ("00".."23").
type HourFetcher interface {
	FetchHour(ctx context.Context, hour string) ([]byte, error)
}

// Aggregator drives the 24 sequential hourly balloon fetches, most recent
// hour first, and folds the normalized records into one deduplicated report.
// One run owns its accumulator exclusively; callers must not start a second
// run against shared state while one is in flight.
type Aggregator struct {
	fetcher    HourFetcher
	normalizer domain.Normalizer
	timeout    time.Duration // per hourly fetch
	resultCap  int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewAggregator creates an Aggregator over the given snapshot fetcher.
func NewAggregator(fetcher HourFetcher, normalizer domain.Normalizer, timeout time.Duration, resultCap int, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		fetcher:    fetcher,
		normalizer: normalizer,
		timeout:    timeout,
		resultCap:  resultCap,
		logger:     logger,
		metrics:    metrics,
	}
}

// accumulator threads through the 24 fold steps. The order slice preserves
// insertion order so the result cap keeps whichever ids were inserted first,
// independent of map iteration order.
type accumulator struct {
	records  map[string]domain.BalloonRecord
	order    []string
	outcomes []domain.FetchOutcome
	dropped  int
}

// Aggregate runs the full 24-hour history fold. Per-hour failures are
// recorded and recovered from; the only hard failure is an empty result
// combined with at least one failed hour.
func (a *Aggregator) Aggregate(ctx context.Context) (domain.BalloonReport, error) {
	acc := accumulator{records: make(map[string]domain.BalloonRecord)}

	// Hour 23 is the most recent, so first-write-wins keeps the latest
	// observation of each id.
	for h := 23; h >= 0; h-- {
		if ctx.Err() != nil {
			return domain.BalloonReport{}, fmt.Errorf("aggregation cancelled: %w", ctx.Err())
		}
		acc = a.step(ctx, acc, fmt.Sprintf("%02d", h))
	}

	report := a.buildReport(acc)

	a.metrics.BalloonsCollected.Set(float64(len(report.Balloons)))
	a.metrics.DedupDropped.Add(float64(acc.dropped))

	if report.HardFailure() {
		return report, fmt.Errorf("%w: %s", domain.ErrNoUsableData, strings.Join(report.Errors, "; "))
	}
	return report, nil
}

// step performs one fetch-normalize-merge cycle and returns the advanced
// accumulator. Every path appends exactly one outcome for the hour.
func (a *Aggregator) step(ctx context.Context, acc accumulator, hour string) accumulator {
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	body, err := a.fetcher.FetchHour(fetchCtx, hour)
	cancel()

	if err != nil {
		outcome := domain.ClassifyFetchError(hour, err)
		a.logger.Warn("hourly fetch failed", "hour", hour, "kind", string(outcome.Kind), "error", err)
		a.metrics.HourlyFetches.WithLabelValues(string(outcome.Kind)).Inc()
		acc.outcomes = append(acc.outcomes, outcome)
		return acc
	}

	snap := a.normalizer.Parse(body, hour)
	if snap.Malformed {
		a.logger.Warn("hourly payload unparseable", "hour", hour)
		a.metrics.HourlyFetches.WithLabelValues(string(domain.OutcomeMalformed)).Inc()
		acc.outcomes = append(acc.outcomes, domain.FetchOutcome{Hour: hour, Kind: domain.OutcomeMalformed})
		return acc
	}

	merged := 0
	for _, rec := range snap.Records {
		if _, seen := acc.records[rec.ID]; seen {
			acc.dropped++
			continue
		}
		acc.records[rec.ID] = rec
		acc.order = append(acc.order, rec.ID)
		merged++
	}

	a.metrics.HourlyFetches.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
	acc.outcomes = append(acc.outcomes, domain.FetchOutcome{Hour: hour, Kind: domain.OutcomeSuccess, Records: merged})
	return acc
}

// buildReport converts the final accumulator into a report, truncating to
// the result cap in insertion order without reordering first.
func (a *Aggregator) buildReport(acc accumulator) domain.BalloonReport {
	limit := len(acc.order)
	if limit > a.resultCap {
		limit = a.resultCap
	}
	balloons := make([]domain.BalloonRecord, 0, limit)
	for _, id := range acc.order[:limit] {
		balloons = append(balloons, acc.records[id])
	}

	var errs []string
	anyFailed := false
	for _, o := range acc.outcomes {
		if o.Failed() {
			anyFailed = true
			errs = append(errs, o.Message())
		}
	}

	return domain.BalloonReport{
		Balloons:   balloons,
		TotalFound: len(acc.order),
		AnyFailed:  anyFailed,
		Errors:     errs,
		Outcomes:   acc.outcomes,
		FetchedAt:  domain.Timestamp(),
	}
}
