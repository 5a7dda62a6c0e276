package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

func TestMemoryBalloonReport(t *testing.T) {
	m := NewMemory()

	_, ok := m.BalloonReport()
	assert.False(t, ok, "empty store should report no data")

	report := domain.BalloonReport{
		Balloons:   []domain.BalloonRecord{{ID: "b-1", Lat: 40, Lon: -100}},
		TotalFound: 1,
	}
	m.SetBalloonReport(report, nil)

	got, ok := m.BalloonReport()
	require.True(t, ok)
	assert.Equal(t, report, got)
}

func TestMemoryBalloonLookup(t *testing.T) {
	m := NewMemory()
	m.SetBalloonReport(domain.BalloonReport{
		Balloons: []domain.BalloonRecord{
			{ID: "b-1", Lat: 40, Lon: -100},
			{ID: "b-2", Lat: 41, Lon: -101},
		},
	}, nil)

	b, ok := m.Balloon("b-2")
	require.True(t, ok)
	assert.Equal(t, 41.0, b.Lat)

	_, ok = m.Balloon("nope")
	assert.False(t, ok)
}

func TestMemoryHardFailureRoundTrip(t *testing.T) {
	m := NewMemory()
	m.SetBalloonReport(domain.BalloonReport{AnyFailed: true}, errors.New("no usable data"))

	status := m.Status()
	assert.Equal(t, "no usable data", status.BalloonError)
	assert.True(t, status.AnyFailed)

	// A later successful run clears the error.
	m.SetBalloonReport(domain.BalloonReport{}, nil)
	assert.Empty(t, m.Status().BalloonError)
}

func TestMemoryAircraft(t *testing.T) {
	m := NewMemory()

	tracked, err := m.Aircraft()
	assert.Empty(t, tracked)
	assert.NoError(t, err)

	m.SetAircraft([]domain.AircraftRecord{{ICAO24: "abc"}}, nil)
	tracked, err = m.Aircraft()
	assert.Len(t, tracked, 1)
	assert.NoError(t, err)
	assert.False(t, m.Status().AircraftAt.IsZero())

	m.SetAircraft(nil, errors.New("upstream unavailable"))
	tracked, err = m.Aircraft()
	assert.Empty(t, tracked)
	assert.EqualError(t, err, "upstream unavailable")
	assert.Equal(t, "upstream unavailable", m.Status().AircraftError)
}

func TestMemoryAircraftKeepsTypedErrors(t *testing.T) {
	m := NewMemory()
	m.SetAircraft(nil, &domain.StatusError{Status: 503})

	_, err := m.Aircraft()
	var se *domain.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.Status)

	// A later successful fetch clears it.
	m.SetAircraft(nil, nil)
	_, err = m.Aircraft()
	assert.NoError(t, err)
}

func TestMemoryStatus(t *testing.T) {
	m := NewMemory()
	m.SetBalloonReport(domain.BalloonReport{
		Balloons:   []domain.BalloonRecord{{ID: "b-1"}},
		TotalFound: 3,
		AnyFailed:  true,
		Errors:     []string{"hour 04: status 503"},
	}, nil)
	m.SetAircraft([]domain.AircraftRecord{{ICAO24: "a"}, {ICAO24: "b"}}, nil)

	status := m.Status()
	assert.Equal(t, 1, status.BalloonCount)
	assert.Equal(t, 3, status.TotalFound)
	assert.True(t, status.AnyFailed)
	assert.Equal(t, []string{"hour 04: status 503"}, status.Errors)
	assert.Equal(t, 2, status.AircraftCount)
}
