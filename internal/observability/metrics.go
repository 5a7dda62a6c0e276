package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	HourlyFetches     *prometheus.CounterVec // labels: outcome={success,malformed,http_error,timeout,network_error}
	BalloonsCollected prometheus.Gauge
	DedupDropped      prometheus.Counter
	RefreshRunning    prometheus.Gauge
	RefreshDuration   prometheus.Histogram

	// Aircraft feed metrics.
	AircraftAttempts *prometheus.CounterVec // labels: outcome={success,http_error,timeout,network_error}
	AircraftTracked  prometheus.Gauge

	// Snapshot cache metrics.
	SnapshotCache *prometheus.CounterVec // labels: result={hit,miss}

	// Publisher metrics.
	SnapshotsPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HourlyFetches,
		m.BalloonsCollected,
		m.DedupDropped,
		m.RefreshRunning,
		m.RefreshDuration,
		m.AircraftAttempts,
		m.AircraftTracked,
		m.SnapshotCache,
		m.SnapshotsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HourlyFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stratowatch",
			Name:      "hourly_fetches_total",
			Help:      "Hourly balloon snapshot fetches by outcome.",
		}, []string{"outcome"}),
		BalloonsCollected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stratowatch",
			Name:      "balloons_collected",
			Help:      "Unique balloons in the last completed aggregation run, after the result cap.",
		}),
		DedupDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stratowatch",
			Name:      "dedup_dropped_total",
			Help:      "Balloon records discarded because a more recent hour already claimed the id.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stratowatch",
			Name:      "refresh_running",
			Help:      "1 while a refresh cycle is in flight, 0 otherwise.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stratowatch",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete aggregate-and-fetch refresh cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		AircraftAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stratowatch",
			Name:      "aircraft_fetch_attempts_total",
			Help:      "Aircraft feed fetch attempts by outcome.",
		}, []string{"outcome"}),
		AircraftTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stratowatch",
			Name:      "aircraft_tracked",
			Help:      "Airborne aircraft in the last completed feed fetch.",
		}),
		SnapshotCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stratowatch",
			Name:      "snapshot_cache_total",
			Help:      "Hourly snapshot cache lookups by result.",
		}, []string{"result"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stratowatch",
			Name:      "snapshots_published_total",
			Help:      "Balloon snapshots published to the sink topic.",
		}),
	}
}
