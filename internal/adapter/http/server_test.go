package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/store"
)

type fakeReadiness struct{ err error }

func (f *fakeReadiness) CheckReadiness(context.Context) error { return f.err }

type fakeRefresher struct {
	inFlight bool
	started  atomic.Int32
}

func (f *fakeRefresher) Begin(context.Context) error {
	if f.inFlight {
		return errors.New("a refresh cycle is already running")
	}
	f.started.Add(1)
	return nil
}

func newTestServer(snapshots *store.Memory, ready ReadinessChecker, refresher RefreshTrigger) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", snapshots, ready, refresher, logger)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(store.NewMemory(), &fakeReadiness{}, &fakeRefresher{})

	rec := doRequest(t, s, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("not ready before the first refresh", func(t *testing.T) {
		s := newTestServer(store.NewMemory(), &fakeReadiness{err: errors.New("warming up")}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("ready", func(t *testing.T) {
		s := newTestServer(store.NewMemory(), &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBalloonsEndpoint(t *testing.T) {
	t.Run("503 before any run completes", func(t *testing.T) {
		s := newTestServer(store.NewMemory(), &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/balloons")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("502 with diagnostics on a hard failure", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetBalloonReport(domain.BalloonReport{
			AnyFailed: true,
			Errors:    []string{"hour 23: status 503", "hour 22: fetch timeout"},
		}, domain.ErrNoUsableData)
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/balloons")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var body struct {
			Details []string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Details, 2)
	})

	t.Run("serves the balloon set", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetBalloonReport(domain.BalloonReport{
			Balloons: []domain.BalloonRecord{{ID: "b-1", Lat: 40, Lon: -100, Alt: 12000}},
		}, nil)
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/balloons")

		assert.Equal(t, http.StatusOK, rec.Code)
		var balloons []domain.BalloonRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balloons))
		require.Len(t, balloons, 1)
		assert.Equal(t, "b-1", balloons[0].ID)
	})

	t.Run("empty set with no failures is a valid empty response", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetBalloonReport(domain.BalloonReport{}, nil)
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/balloons")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAircraftEndpoint(t *testing.T) {
	t.Run("upstream status passes through on a failed fetch", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetAircraft(nil, &domain.StatusError{Status: http.StatusNotFound, Body: "not found"})
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/aircraft")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("final server error keeps its status", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetAircraft(nil, &domain.StatusError{Status: http.StatusServiceUnavailable})
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/aircraft")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("final timeout becomes 504", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetAircraft(nil, fmt.Errorf("aircraft feed attempt exceeded 20s: %w", domain.ErrTimeout))
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/aircraft")

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("unclassified failure becomes 500 with detail", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetAircraft(nil, errors.New("upstream unavailable"))
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/aircraft")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error": "upstream unavailable"}`, rec.Body.String())
	})

	t.Run("empty store serves an empty array", func(t *testing.T) {
		s := newTestServer(store.NewMemory(), &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/aircraft")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("serves the tracked aircraft", func(t *testing.T) {
		snapshots := store.NewMemory()
		snapshots.SetAircraft([]domain.AircraftRecord{{ICAO24: "abc123", Callsign: "UAL1", Lat: 40, Lon: -98}}, nil)
		s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, s, http.MethodGet, "/api/aircraft")

		assert.Equal(t, http.StatusOK, rec.Code)
		var aircraft []domain.AircraftRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aircraft))
		assert.Len(t, aircraft, 1)
	})
}

func TestProximityEndpoint(t *testing.T) {
	snapshots := store.NewMemory()
	snapshots.SetBalloonReport(domain.BalloonReport{
		Balloons: []domain.BalloonRecord{{ID: "b-1", Lat: 0, Lon: 0}},
	}, nil)
	snapshots.SetAircraft([]domain.AircraftRecord{
		{ICAO24: "far", Lat: 0, Lon: 3},
		{ICAO24: "near", Lat: 0, Lon: 1},
	}, nil)
	s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

	t.Run("requires the balloon parameter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/proximity")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("404 for an unknown balloon", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/proximity?balloon=nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns the nearest aircraft", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/proximity?balloon=b-1")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp proximityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Nearest)
		assert.Equal(t, "near", resp.Nearest.ICAO24)
		require.NotNil(t, resp.DistanceKm)
		assert.Greater(t, *resp.DistanceKm, 0.0)
	})

	t.Run("null result when no aircraft are tracked", func(t *testing.T) {
		empty := store.NewMemory()
		empty.SetBalloonReport(domain.BalloonReport{
			Balloons: []domain.BalloonRecord{{ID: "b-1", Lat: 0, Lon: 0}},
		}, nil)
		srv := newTestServer(empty, &fakeReadiness{}, &fakeRefresher{})

		rec := doRequest(t, srv, http.MethodGet, "/api/proximity?balloon=b-1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"nearest": null, "distance_km": null}`, rec.Body.String())
	})
}

func TestStatusEndpoint(t *testing.T) {
	snapshots := store.NewMemory()
	snapshots.SetBalloonReport(domain.BalloonReport{
		Balloons:   []domain.BalloonRecord{{ID: "b-1"}},
		TotalFound: 7,
	}, nil)
	s := newTestServer(snapshots, &fakeReadiness{}, &fakeRefresher{})

	rec := doRequest(t, s, http.MethodGet, "/api/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	var status store.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.BalloonCount)
	assert.Equal(t, 7, status.TotalFound)
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("409 while a cycle is in flight", func(t *testing.T) {
		refresher := &fakeRefresher{inFlight: true}
		s := newTestServer(store.NewMemory(), &fakeReadiness{}, refresher)

		rec := doRequest(t, s, http.MethodPost, "/api/refresh")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Zero(t, refresher.started.Load())
	})

	t.Run("202 and starts a cycle", func(t *testing.T) {
		refresher := &fakeRefresher{}
		s := newTestServer(store.NewMemory(), &fakeReadiness{}, refresher)

		rec := doRequest(t, s, http.MethodPost, "/api/refresh")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, int32(1), refresher.started.Load())
	})
}

func TestMethodAndRouteGuards(t *testing.T) {
	s := newTestServer(store.NewMemory(), &fakeReadiness{}, &fakeRefresher{})

	rec := doRequest(t, s, http.MethodGet, "/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
