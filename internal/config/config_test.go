package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://a.windbornesystems.com/treasure", cfg.BalloonEndpoint)
	assert.Equal(t, "WBS", cfg.BalloonSourceLabel)
	assert.Equal(t, 25*time.Second, cfg.BalloonTimeout)
	assert.Equal(t, 50, cfg.BalloonResultCap)
	assert.Equal(t, time.Minute, cfg.BalloonCacheTTL)
	assert.Equal(t, 4.0, cfg.BalloonRateLimit)

	assert.True(t, cfg.RegionEnabled)
	assert.Equal(t, domain.BoundingBox{MinLat: 15, MaxLat: 85, MinLon: -170, MaxLon: -50}, cfg.Region)
	assert.Equal(t, 5.0, cfg.BoundsPadding)

	assert.Equal(t, "https://opensky-network.org/api/states/all", cfg.AircraftEndpoint)
	assert.Equal(t, 20*time.Second, cfg.AircraftTimeout)
	assert.Equal(t, 2, cfg.AircraftRetries)
	assert.Equal(t, time.Second, cfg.AircraftBackoff)

	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "balloon-snapshots", cfg.KafkaTopic)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("BALLOON_ENDPOINT", "http://localhost:8081/snapshots")
	t.Setenv("BALLOON_FETCH_TIMEOUT", "5s")
	t.Setenv("BALLOON_RESULT_CAP", "10")
	t.Setenv("AIRCRAFT_RETRIES", "4")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("REGION_ENABLED", "false")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:8081/snapshots", cfg.BalloonEndpoint)
	assert.Equal(t, 5*time.Second, cfg.BalloonTimeout)
	assert.Equal(t, 10, cfg.BalloonResultCap)
	assert.Equal(t, 4, cfg.AircraftRetries)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.False(t, cfg.RegionEnabled)
	assert.Nil(t, cfg.RegionBox())
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "BALLOON_FETCH_TIMEOUT", "soon"},
		{"negative duration", "REFRESH_INTERVAL", "-1m"},
		{"non-numeric cap", "BALLOON_RESULT_CAP", "many"},
		{"zero cap", "BALLOON_RESULT_CAP", "0"},
		{"negative retries", "AIRCRAFT_RETRIES", "-1"},
		{"non-numeric padding", "BOUNDS_PADDING", "wide"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsInvertedRegion(t *testing.T) {
	t.Setenv("REGION_MIN_LAT", "50")
	t.Setenv("REGION_MAX_LAT", "20")

	_, err := Load()
	assert.Error(t, err)
}

func TestRegionBoxCopies(t *testing.T) {
	cfg := &Config{RegionEnabled: true, Region: domain.BoundingBox{MinLat: 1, MaxLat: 2, MinLon: 3, MaxLon: 4}}

	box := cfg.RegionBox()
	require.NotNil(t, box)
	box.MinLat = -99

	assert.Equal(t, 1.0, cfg.Region.MinLat)
}
