package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel slog.Level

	DatabaseURL string

	StationURL  string
	StationName string
	StationLat  float64
	StationLon  float64

	FetchTimeout    time.Duration
	CacheTTL        time.Duration
	ShutdownTimeout time.Duration

	RegionalAPIURL      string
	RegionalConcurrency int

	ForecastConsensus string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	appEnv := getEnv("GO_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid GO_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("STATION_LAT", "9.9281")
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("STATION_LON", "-84.0907")
	if err != nil {
		return nil, err
	}

	// 0 fetches every regional location at once
	concurrency := 0
	if v := getEnv("REGIONAL_CONCURRENCY", ""); v != "" {
		concurrency, err = strconv.Atoi(v)
		if err != nil || concurrency < 1 {
			return nil, errors.New("invalid REGIONAL_CONCURRENCY")
		}
	}

	consensus := strings.ToLower(getEnv("FORECAST_CONSENSUS", "ema"))
	if consensus != "ema" && consensus != "mean" {
		return nil, fmt.Errorf("invalid FORECAST_CONSENSUS %q (allowed: ema, mean)", consensus)
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AppEnv:              appEnv,
		LogLevel:            level,
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		StationURL:          getEnv("STATION_URL", ""),
		StationName:         getEnv("STATION_NAME", "Estación IMN"),
		StationLat:          lat,
		StationLon:          lon,
		FetchTimeout:        fetchTimeout,
		CacheTTL:            cacheTTL,
		ShutdownTimeout:     shutdownTimeout,
		RegionalAPIURL:      getEnv("REGIONAL_API_URL", "https://api.open-meteo.com/v1/forecast"),
		RegionalConcurrency: concurrency,
		ForecastConsensus:   consensus,
	}

	if cfg.StationURL == "" {
		return nil, errors.New("STATION_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	raw := getEnv(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func parseFloat(key, defaultValue string) (float64, error) {
	raw := getEnv(key, defaultValue)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
