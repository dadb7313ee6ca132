package domain

import (
	"context"
	"time"
)

// DashboardData aggregates the station report and the regional batch.
type DashboardData struct {
	Rainfall      *RainfallReport  `json:"rainfall"`
	RainfallError string           `json:"rainfall_error,omitempty"`
	Regional      *RegionalWeather `json:"regional"`
	RegionalError string           `json:"regional_error,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// FetchLog is an operational record of one upstream station fetch. It holds no
// rainfall values and is never read back by the engine.
type FetchLog struct {
	FetchedAt  time.Time     `json:"fetched_at"`
	Station    string        `json:"station"`
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	HourlyRows int           `json:"hourly_rows"`
	DailyRows  int           `json:"daily_rows"`
	Duration   time.Duration `json:"duration_ns"`
}

// DataRepository defines the interface for data persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type DataRepository interface {
	// SaveFetchLog persists the outcome of a station fetch
	SaveFetchLog(ctx context.Context, entry FetchLog) error

	// GetFetchLogs retrieves fetch outcomes within a time range
	GetFetchLogs(ctx context.Context, from, to time.Time) ([]FetchLog, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
