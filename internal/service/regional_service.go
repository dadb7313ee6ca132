package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/rainwatch/backend/internal/domain"
	"github.com/rainwatch/backend/internal/observability"
	"github.com/rainwatch/backend/pkg/utils"
)

const (
	regionalHourlyPoints = 24
	regionalForecastDays = 5
)

// RegionalConfig configures a RegionalService.
type RegionalConfig struct {
	BaseURL     string
	Locations   []domain.Location
	StationLat  float64
	StationLon  float64
	Timeout     time.Duration
	CacheTTL    time.Duration
	Concurrency int
}

// RegionalService fetches numeric-model forecasts for a fixed set of locations
type RegionalService struct {
	baseURL     string
	locations   []domain.Location
	stationLat  float64
	stationLon  float64
	concurrency int
	httpClient  *http.Client
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	cache       *ttlCache[domain.RegionalWeather]
}

// NewRegionalService creates a new regional forecast service
func NewRegionalService(cfg RegionalConfig, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *RegionalService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = len(cfg.Locations)
	}
	return &RegionalService{
		baseURL:     cfg.BaseURL,
		locations:   cfg.Locations,
		stationLat:  cfg.StationLat,
		stationLon:  cfg.StationLon,
		concurrency: cfg.Concurrency,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		cache:   newTTLCache[domain.RegionalWeather]("regional", cfg.CacheTTL, clock, metrics),
	}
}

// OpenMeteoResponse represents the forecast API response
type OpenMeteoResponse struct {
	Current struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		Rain        float64 `json:"precipitation"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Hourly struct {
		Time            []string  `json:"time"`
		Temperature     []float64 `json:"temperature_2m"`
		Rain            []float64 `json:"precipitation"`
		RainProbability []float64 `json:"precipitation_probability"`
		WeatherCode     []int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Time            []string  `json:"time"`
		WeatherCode     []int     `json:"weather_code"`
		TempMax         []float64 `json:"temperature_2m_max"`
		TempMin         []float64 `json:"temperature_2m_min"`
		RainSum         []float64 `json:"precipitation_sum"`
		RainProbability []float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// GetRegional returns the forecast batch. A failing location never fails the
// batch; it is reported with an error and empty series.
func (s *RegionalService) GetRegional(ctx context.Context) (domain.RegionalWeather, error) {
	return s.cache.get(ctx, s.refresh)
}

func (s *RegionalService) refresh(ctx context.Context) (domain.RegionalWeather, error) {
	results := make([]domain.LocationWeather, len(s.locations))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, loc := range s.locations {
		g.Go(func() error {
			results[i] = s.fetchLocation(ctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	return domain.RegionalWeather{
		Locations: results,
		FetchedAt: s.clock.Now().UTC(),
	}, nil
}

func (s *RegionalService) fetchLocation(ctx context.Context, loc domain.Location) domain.LocationWeather {
	result := domain.LocationWeather{
		Location:   loc,
		DistanceKM: utils.RoundTo(utils.Haversine(s.stationLat, s.stationLon, loc.Latitude, loc.Longitude), 1),
		Hourly:     []domain.HourlyPoint{},
		Daily:      []domain.DailySummary{},
	}

	resp, err := s.fetchForecast(ctx, loc)
	if err != nil {
		s.metrics.RegionalFetches.WithLabelValues("error").Inc()
		s.logger.Warn("regional fetch failed", "location", loc.Name, "error", err)
		result.Error = err.Error()
		return result
	}
	s.metrics.RegionalFetches.WithLabelValues("success").Inc()

	result.Current = &domain.CurrentConditions{
		Time:        resp.Current.Time,
		Temperature: resp.Current.Temperature,
		Humidity:    resp.Current.Humidity,
		RainMM:      resp.Current.Rain,
		WindSpeed:   resp.Current.WindSpeed,
		Condition:   DescribeWeatherCode(resp.Current.WeatherCode),
	}

	h := resp.Hourly
	for i := 0; i < len(h.Time) && i < regionalHourlyPoints; i++ {
		result.Hourly = append(result.Hourly, domain.HourlyPoint{
			Time:            h.Time[i],
			Temperature:     at(h.Temperature, i),
			RainMM:          at(h.Rain, i),
			RainProbability: int(at(h.RainProbability, i)),
			Condition:       DescribeWeatherCode(at(h.WeatherCode, i)),
		})
	}

	d := resp.Daily
	for i := 0; i < len(d.Time) && i < regionalForecastDays; i++ {
		result.Daily = append(result.Daily, domain.DailySummary{
			Date:            d.Time[i],
			TempMax:         at(d.TempMax, i),
			TempMin:         at(d.TempMin, i),
			RainMM:          at(d.RainSum, i),
			RainProbability: int(at(d.RainProbability, i)),
			Condition:       DescribeWeatherCode(at(d.WeatherCode, i)),
		})
	}

	return result
}

func (s *RegionalService) fetchForecast(ctx context.Context, loc domain.Location) (OpenMeteoResponse, error) {
	params := url.Values{
		"latitude":       {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude":      {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"current":        {"temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m"},
		"hourly":         {"temperature_2m,precipitation,precipitation_probability,weather_code"},
		"daily":          {"weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max"},
		"forecast_hours": {strconv.Itoa(regionalHourlyPoints)},
		"forecast_days":  {strconv.Itoa(regionalForecastDays)},
		"timezone":       {"auto"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return OpenMeteoResponse{}, fmt.Errorf("regional: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return OpenMeteoResponse{}, fmt.Errorf("regional: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return OpenMeteoResponse{}, fmt.Errorf("regional: status %d: %s", resp.StatusCode, body)
	}

	var out OpenMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return OpenMeteoResponse{}, fmt.Errorf("regional: failed to decode response: %w", err)
	}
	return out, nil
}

// at returns s[i] or the zero value for ragged arrays.
func at[T any](s []T, i int) T {
	if i < len(s) {
		return s[i]
	}
	var zero T
	return zero
}
