package domain

import "time"

// Location is a named point served by the regional forecast batch.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// DefaultLocations are the destinations shown in the regional weather panel.
var DefaultLocations = []Location{
	{Name: "La Fortuna", Latitude: 10.4678, Longitude: -84.6427},
	{Name: "Monteverde", Latitude: 10.3010, Longitude: -84.8253},
	{Name: "Manuel Antonio", Latitude: 9.3923, Longitude: -84.1366},
	{Name: "Tamarindo", Latitude: 10.2993, Longitude: -85.8371},
	{Name: "Puerto Viejo", Latitude: 9.6557, Longitude: -82.7536},
}

// WeatherCondition is a weather code remapped to a local label and icon.
type WeatherCondition struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// CurrentConditions are the instantaneous readings for a location.
type CurrentConditions struct {
	Time        string           `json:"time"`
	Temperature float64          `json:"temperature"`
	Humidity    float64          `json:"humidity"`
	RainMM      float64          `json:"rain_mm"`
	WindSpeed   float64          `json:"wind_speed"`
	Condition   WeatherCondition `json:"condition"`
}

// HourlyPoint is one hour of the numeric model forecast.
type HourlyPoint struct {
	Time            string           `json:"time"`
	Temperature     float64          `json:"temperature"`
	RainMM          float64          `json:"rain_mm"`
	RainProbability int              `json:"rain_probability"`
	Condition       WeatherCondition `json:"condition"`
}

// DailySummary is one day of the numeric model forecast.
type DailySummary struct {
	Date            string           `json:"date"`
	TempMax         float64          `json:"temp_max"`
	TempMin         float64          `json:"temp_min"`
	RainMM          float64          `json:"rain_mm"`
	RainProbability int              `json:"rain_probability"`
	Condition       WeatherCondition `json:"condition"`
}

// LocationWeather is the result for one location. A failed fetch carries Error
// and empty series.
type LocationWeather struct {
	Location   Location           `json:"location"`
	DistanceKM float64            `json:"distance_km"`
	Current    *CurrentConditions `json:"current"`
	Hourly     []HourlyPoint      `json:"hourly"`
	Daily      []DailySummary     `json:"daily"`
	Error      string             `json:"error,omitempty"`
}

// RegionalWeather is the full batch.
type RegionalWeather struct {
	Locations []LocationWeather `json:"locations"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// RegionalResponse wraps the batch for the UI.
type RegionalResponse struct {
	Data    RegionalWeather `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
}
