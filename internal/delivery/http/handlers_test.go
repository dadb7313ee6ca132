package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlers "github.com/rainwatch/backend/internal/delivery/http"
	"github.com/rainwatch/backend/internal/domain"
	"github.com/rainwatch/backend/internal/observability"
	"github.com/rainwatch/backend/internal/repository/postgres"
	"github.com/rainwatch/backend/internal/service"
)

const stationPage = `<html><body>
<h3>Datos Horarios</h3>
<table>
  <tr><td>Fecha</td><td>Lluvia (mm)</td><td>Temperatura (°C)</td><td>Humedad (%)</td></tr>
  <tr><td>15/03/2026 08:00:00 a.m.</td><td>12,5</td><td>22,1</td><td>95</td></tr>
  <tr><td>15/03/2026 07:00:00 a.m.</td><td>9,0</td><td>21,4</td><td>96</td></tr>
  <tr><td>15/03/2026 06:00:00 a.m.</td><td>0,0</td><td>20,9</td><td>90</td></tr>
</table>
<h3>Datos Diarios</h3>
<table>
  <tr><td>Fecha</td><td>Lluvia (mm)</td></tr>
  <tr><td>14/03/2026</td><td>30,2</td></tr>
  <tr><td>13/03/2026</td><td>4,0</td></tr>
</table>
</body></html>`

const forecastBody = `{"current": {"time": "2026-03-15T08:00", "temperature_2m": 24.5, "weather_code": 3},
 "hourly": {"time": [], "temperature_2m": []}, "daily": {"time": []}}`

var testNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

type env struct {
	app     *fiber.App
	station *service.StationService
	repo    *postgres.MockRepository
}

func newEnv(t *testing.T, stationStatus int) *env {
	t.Helper()
	station := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.WriteHeader(stationStatus)
		_, _ = io.WriteString(w, stationPage)
	}))
	t.Cleanup(station.Close)
	forecast := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		_, _ = io.WriteString(w, forecastBody)
	}))
	t.Cleanup(forecast.Close)

	clock := clockwork.NewFakeClockAt(testNow)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	repo := postgres.NewMockRepository()

	stationSvc := service.NewStationService(service.StationConfig{
		URL:      station.URL,
		Name:     "Estación central",
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
	}, repo, clock, logger, metrics)
	regionalSvc := service.NewRegionalService(service.RegionalConfig{
		BaseURL:   forecast.URL,
		Locations: domain.DefaultLocations[:2],
		Timeout:   2 * time.Second,
		CacheTTL:  time.Minute,
	}, clock, logger, metrics)
	dashboardSvc := service.NewDashboardService(stationSvc, regionalSvc, clock, logger)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	handlers.SetupRoutes(app, dashboardSvc, repo, clock)
	t.Cleanup(stationSvc.WaitBackground)

	return &env{app: app, station: stationSvc, repo: repo}
}

func (e *env) get(t *testing.T, target string, out any) int {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(stdhttp.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGetRainfall(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)

	var body domain.RainfallResponse
	status := e.get(t, "/api/v1/rainfall?hours=2&days=1", &body)

	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Len(t, body.Data.Hourly, 2)
	assert.Len(t, body.Data.Daily, 1)
	assert.Equal(t, 21.5, body.Data.Stats.Sum3h)
	assert.Equal(t, domain.RiskRed, body.Data.Risk.Level)
	assert.Equal(t, "intensa", body.Data.Intensity)
	assert.Len(t, body.Data.Forecast.Methods, 6)
	assert.Equal(t, "Estación central", body.Data.Meta.Station)
}

func TestGetRainfall_ClampsQuery(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)

	var body domain.RainfallResponse
	status := e.get(t, "/api/v1/rainfall?hours=0&days=500", &body)

	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body.Data.Hourly, 1)
	assert.Len(t, body.Data.Daily, 2)
}

func TestGetRainfall_UpstreamFailure(t *testing.T) {
	e := newEnv(t, stdhttp.StatusInternalServerError)

	var body map[string]any
	status := e.get(t, "/api/v1/rainfall", &body)

	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "temporalmente no disponibles")
	assert.NotContains(t, body, "data")
}

func TestGetRegional(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)

	var body domain.RegionalResponse
	status := e.get(t, "/api/v1/regional", &body)

	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	require.Len(t, body.Data.Locations, 2)
	assert.Equal(t, "La Fortuna", body.Data.Locations[0].Location.Name)
	require.NotNil(t, body.Data.Locations[0].Current)
	assert.Equal(t, "Nublado", body.Data.Locations[0].Current.Condition.Label)
}

func TestGetDashboard_PartialFailure(t *testing.T) {
	e := newEnv(t, stdhttp.StatusServiceUnavailable)

	var body struct {
		Success bool                 `json:"success"`
		Data    domain.DashboardData `json:"data"`
	}
	status := e.get(t, "/api/v1/dashboard", &body)

	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Nil(t, body.Data.Rainfall)
	assert.NotEmpty(t, body.Data.RainfallError)
	require.NotNil(t, body.Data.Regional)
}

func TestGetFetchLogs(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)
	require.NoError(t, e.repo.SaveFetchLog(context.Background(), domain.FetchLog{
		FetchedAt: testNow.Add(-48 * time.Hour),
		Station:   "Estación central",
		Success:   true,
	}))

	e.get(t, "/api/v1/rainfall", nil)
	e.station.WaitBackground()

	var body struct {
		Success bool              `json:"success"`
		Count   int               `json:"count"`
		Data    []domain.FetchLog `json:"data"`
	}
	status := e.get(t, "/api/v1/status/fetches?hours=24", &body)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Data[0].HourlyRows)

	status = e.get(t, "/api/v1/status/fetches?hours=72", &body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, body.Count)
}

func TestHealthCheck(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)

	var body map[string]any
	status := e.get(t, "/health", &body)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)

	resp, err := e.app.Test(httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	e := newEnv(t, stdhttp.StatusOK)

	var body map[string]any
	status := e.get(t, "/api/v1/nope", &body)

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}
