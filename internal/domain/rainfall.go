package domain

import "time"

// RegionUTCOffset is the fixed offset of the monitored region. The region does
// not observe daylight saving time, so no timezone database lookup is needed.
const RegionUTCOffset = -6 * time.Hour

// DailyResetHour is the local hour at which the station resets its daily accumulation.
const DailyResetHour = 7

// HourlyEntry is a single hourly observation from the station report.
type HourlyEntry struct {
	Label    string     `json:"label"`
	Time     *time.Time `json:"time"`
	RainMM   float64    `json:"rain_mm"`
	TempC    *float64   `json:"temp_c"`
	Humidity *float64   `json:"humidity"`
}

// CurrentTotals is the accumulation snapshot published alongside the hourly table.
type CurrentTotals struct {
	Label            string     `json:"label"`
	Time             *time.Time `json:"time"`
	SinceResetMM     float64    `json:"since_reset_mm"`
	PreviousPeriodMM float64    `json:"previous_period_mm"`
	ResetHour        int        `json:"reset_hour"`
}

// DailyEntry is a single daily rainfall total.
type DailyEntry struct {
	Label  string     `json:"label"`
	Time   *time.Time `json:"time"`
	RainMM float64    `json:"rain_mm"`
}

// PeakHour identifies the wettest hour of a window.
type PeakHour struct {
	Label  string  `json:"label"`
	RainMM float64 `json:"rain_mm"`
}

// RollingWindowStats holds the accumulation statistics derived from the hourly series.
type RollingWindowStats struct {
	Sum1h       float64  `json:"sum_1h"`
	Sum3h       float64  `json:"sum_3h"`
	Sum6h       float64  `json:"sum_6h"`
	Sum24h      float64  `json:"sum_24h"`
	Sum48h      float64  `json:"sum_48h"`
	WetHours24h int      `json:"wet_hours_24h"`
	WetStreak   int      `json:"wet_streak"`
	DryStreak   int      `json:"dry_streak"`
	Peak        PeakHour `json:"peak_24h"`
}

// Confidence tiers of the forecast ensemble.
const (
	ConfidenceHigh   = "alta"
	ConfidenceMedium = "media"
	ConfidenceLow    = "baja"
)

// ForecastMethod is one estimator's next-hour projection.
type ForecastMethod struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	ValueMM float64 `json:"value_mm"`
}

// Forecast is the ensemble output.
type Forecast struct {
	Methods     []ForecastMethod `json:"methods"`
	ConsensusMM float64          `json:"consensus_mm"`
	Confidence  string           `json:"confidence"`
	Samples     int              `json:"samples"`
}

// Risk levels.
const (
	RiskGreen  = "green"
	RiskYellow = "yellow"
	RiskRed    = "red"
)

// RiskDescriptor is the flood-risk classification.
type RiskDescriptor struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// StationMeta describes where and when the report was obtained.
type StationMeta struct {
	Station         string     `json:"station"`
	SourceURL       string     `json:"source_url"`
	FetchedAt       time.Time  `json:"fetched_at"`
	LastObservation *time.Time `json:"last_observation"`
}

// RainfallReport is the full computed state of the monitored station.
type RainfallReport struct {
	Risk      RiskDescriptor     `json:"risk"`
	Intensity string             `json:"intensity"`
	Trend     string             `json:"trend"`
	Stats     RollingWindowStats `json:"stats"`
	Forecast  Forecast           `json:"forecast"`
	Current   *CurrentTotals     `json:"current,omitempty"`
	Hourly    []HourlyEntry      `json:"hourly"`
	Daily     []DailyEntry       `json:"daily"`
	Meta      StationMeta        `json:"meta"`
}

// Truncate returns a copy of the report with at most hours hourly and days daily
// entries. Derived statistics are left untouched.
func (r RainfallReport) Truncate(hours, days int) RainfallReport {
	out := r
	if hours >= 0 && hours < len(r.Hourly) {
		out.Hourly = append([]HourlyEntry(nil), r.Hourly[:hours]...)
	}
	if days >= 0 && days < len(r.Daily) {
		out.Daily = append([]DailyEntry(nil), r.Daily[:days]...)
	}
	return out
}

// RainfallResponse wraps a report with the success flag expected by the UI.
type RainfallResponse struct {
	Data    RainfallReport `json:"data"`
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
}
