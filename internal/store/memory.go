package store

import (
	"sync"
	"time"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

// Memory is the concurrency-safe in-memory snapshot store the HTTP API reads
// from. It holds only the most recent refresh cycle's output; history beyond
// the current 24-hour window is not retained.
type Memory struct {
	mu sync.RWMutex

	report     domain.BalloonReport
	hasReport  bool
	balloonErr string // hard-failure detail from the last run, if any

	aircraft    []domain.AircraftRecord
	aircraftErr error // typed fetch error kept intact for status mapping
	aircraftAt  time.Time
}

// Status summarizes the stored state for diagnostics.
type Status struct {
	FetchedAt     time.Time `json:"fetched_at"`
	BalloonCount  int       `json:"balloon_count"`
	TotalFound    int       `json:"total_found"`
	AnyFailed     bool      `json:"any_failed"`
	Errors        []string  `json:"errors,omitempty"`
	BalloonError  string    `json:"balloon_error,omitempty"`
	AircraftCount int       `json:"aircraft_count"`
	AircraftError string    `json:"aircraft_error,omitempty"`
	AircraftAt    time.Time `json:"aircraft_fetched_at"`
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

// SetBalloonReport replaces the stored report. hardErr carries the run-level
// failure, nil for a successful or soft-failed run.
func (m *Memory) SetBalloonReport(report domain.BalloonReport, hardErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = report
	m.hasReport = true
	if hardErr != nil {
		m.balloonErr = hardErr.Error()
	} else {
		m.balloonErr = ""
	}
}

// SetAircraft replaces the stored aircraft set. err is kept as-is so the API
// layer can map StatusError and timeout classifications to response codes.
func (m *Memory) SetAircraft(aircraft []domain.AircraftRecord, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aircraft = aircraft
	m.aircraftAt = domain.Timestamp()
	m.aircraftErr = err
}

// BalloonReport returns the last report and whether one exists yet.
func (m *Memory) BalloonReport() (domain.BalloonReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.report, m.hasReport
}

// Balloon looks up a stored balloon by id. The capped set is small, so a
// linear scan is fine.
func (m *Memory) Balloon(id string) (domain.BalloonRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.report.Balloons {
		if b.ID == id {
			return b, true
		}
	}
	return domain.BalloonRecord{}, false
}

// Aircraft returns the last aircraft set and the error from its fetch, nil
// when the fetch succeeded.
func (m *Memory) Aircraft() ([]domain.AircraftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aircraft, m.aircraftErr
}

// Status reports the store's diagnostic summary.
func (m *Memory) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	aircraftErr := ""
	if m.aircraftErr != nil {
		aircraftErr = m.aircraftErr.Error()
	}
	return Status{
		FetchedAt:     m.report.FetchedAt,
		BalloonCount:  len(m.report.Balloons),
		TotalFound:    m.report.TotalFound,
		AnyFailed:     m.report.AnyFailed,
		Errors:        m.report.Errors,
		BalloonError:  m.balloonErr,
		AircraftCount: len(m.aircraft),
		AircraftError: aircraftErr,
		AircraftAt:    m.aircraftAt,
	}
}
