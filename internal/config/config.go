package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Balloon history source.
	BalloonEndpoint    string
	BalloonSourceLabel string
	BalloonTimeout     time.Duration // per hourly fetch
	BalloonResultCap   int
	BalloonCacheTTL    time.Duration // 0 disables the hourly snapshot cache
	BalloonRateLimit   float64       // outbound requests per second; 0 disables

	// Region of interest filter for balloon records.
	RegionEnabled bool
	Region        domain.BoundingBox

	// Padding in degrees applied around the balloon set when deriving the
	// aircraft query box.
	BoundsPadding float64

	// Aircraft state feed.
	AircraftEndpoint string
	AircraftTimeout  time.Duration // per attempt
	AircraftRetries  int           // retries after the first attempt
	AircraftBackoff  time.Duration // linear backoff unit between attempts

	RefreshInterval time.Duration

	// Optional snapshot publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored for local
// development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	balloonTimeout, err := envDuration("BALLOON_FETCH_TIMEOUT", 25*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("BALLOON_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}
	aircraftTimeout, err := envDuration("AIRCRAFT_FETCH_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}
	aircraftBackoff, err := envDuration("AIRCRAFT_RETRY_BACKOFF", time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := envDuration("REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	resultCap, err := envInt("BALLOON_RESULT_CAP", 50)
	if err != nil {
		return nil, err
	}
	retries, err := envInt("AIRCRAFT_RETRIES", 2)
	if err != nil {
		return nil, err
	}

	rateLimit, err := envFloat("BALLOON_RATE_LIMIT", 4)
	if err != nil {
		return nil, err
	}
	padding, err := envFloat("BOUNDS_PADDING", 5)
	if err != nil {
		return nil, err
	}

	region, regionEnabled, err := loadRegion()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BalloonEndpoint:    envOrDefault("BALLOON_ENDPOINT", "https://a.windbornesystems.com/treasure"),
		BalloonSourceLabel: envOrDefault("BALLOON_SOURCE_LABEL", "WBS"),
		BalloonTimeout:     balloonTimeout,
		BalloonResultCap:   resultCap,
		BalloonCacheTTL:    cacheTTL,
		BalloonRateLimit:   rateLimit,

		RegionEnabled: regionEnabled,
		Region:        region,
		BoundsPadding: padding,

		AircraftEndpoint: envOrDefault("AIRCRAFT_ENDPOINT", "https://opensky-network.org/api/states/all"),
		AircraftTimeout:  aircraftTimeout,
		AircraftRetries:  retries,
		AircraftBackoff:  aircraftBackoff,

		RefreshInterval: refreshInterval,

		KafkaEnabled: envOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: splitNonEmpty(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "balloon-snapshots"),
	}

	if cfg.BalloonEndpoint == "" {
		return nil, errors.New("BALLOON_ENDPOINT is required")
	}
	if cfg.AircraftEndpoint == "" {
		return nil, errors.New("AIRCRAFT_ENDPOINT is required")
	}
	if cfg.BalloonResultCap <= 0 {
		return nil, errors.New("BALLOON_RESULT_CAP must be positive")
	}
	if cfg.AircraftRetries < 0 {
		return nil, errors.New("AIRCRAFT_RETRIES must not be negative")
	}
	if cfg.BalloonTimeout <= 0 || cfg.AircraftTimeout <= 0 {
		return nil, errors.New("fetch timeouts must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// RegionBox returns the configured region filter, or nil when disabled.
func (c *Config) RegionBox() *domain.BoundingBox {
	if !c.RegionEnabled {
		return nil
	}
	box := c.Region
	return &box
}

// loadRegion reads the region-of-interest box, defaulting to a
// continent-scale North America region.
func loadRegion() (domain.BoundingBox, bool, error) {
	enabled := envOrDefault("REGION_ENABLED", "true") == "true"

	minLat, err := envFloat("REGION_MIN_LAT", 15)
	if err != nil {
		return domain.BoundingBox{}, false, err
	}
	maxLat, err := envFloat("REGION_MAX_LAT", 85)
	if err != nil {
		return domain.BoundingBox{}, false, err
	}
	minLon, err := envFloat("REGION_MIN_LON", -170)
	if err != nil {
		return domain.BoundingBox{}, false, err
	}
	maxLon, err := envFloat("REGION_MAX_LON", -50)
	if err != nil {
		return domain.BoundingBox{}, false, err
	}

	if minLat > maxLat || minLon > maxLon {
		return domain.BoundingBox{}, false, errors.New("region bounds are inverted")
	}

	return domain.BoundingBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}, enabled, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func splitNonEmpty(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
