package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rainwatch/backend/internal/domain"
	"github.com/rainwatch/backend/internal/service"
	"github.com/rainwatch/backend/pkg/utils"
)

// Query limits for the rainfall endpoint.
const (
	defaultHours = 24
	maxHours     = 48
	defaultDays  = 7
	maxDays      = 31
)

// Handler contains all HTTP handlers
type Handler struct {
	dashboardSvc *service.DashboardService
	repo         service.DataRepository
	clock        clockwork.Clock
}

// NewHandler creates a new handler
func NewHandler(dashboardSvc *service.DashboardService, repo service.DataRepository, clock clockwork.Clock) *Handler {
	return &Handler{
		dashboardSvc: dashboardSvc,
		repo:         repo,
		clock:        clock,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	database := "ok"
	if err := h.repo.Health(c.UserContext()); err != nil {
		database = "unavailable"
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "rainwatch-backend",
		"version":  "1.0.0",
		"database": database,
	})
}

// GetRainfall returns the station report with rolling stats, forecast and risk
func (h *Handler) GetRainfall(c *fiber.Ctx) error {
	hours := utils.ClampInt(c.QueryInt("hours", defaultHours), 1, maxHours)
	days := utils.ClampInt(c.QueryInt("days", defaultDays), 1, maxDays)

	report, err := h.dashboardSvc.GetRainfall(c.UserContext(), hours, days)
	if err != nil {
		return rainfallError(err)
	}

	return c.JSON(domain.RainfallResponse{
		Data:    report,
		Success: true,
	})
}

// GetRegional returns the per-location forecast batch
func (h *Handler) GetRegional(c *fiber.Ctx) error {
	regional, err := h.dashboardSvc.GetRegional(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "Pronóstico regional no disponible")
	}

	return c.JSON(domain.RegionalResponse{
		Data:    regional,
		Success: true,
	})
}

// GetDashboard returns rainfall and regional data in one payload
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	hours := utils.ClampInt(c.QueryInt("hours", defaultHours), 1, maxHours)
	days := utils.ClampInt(c.QueryInt("days", defaultDays), 1, maxDays)

	data := h.dashboardSvc.GetDashboardData(c.UserContext(), hours, days)

	return c.JSON(fiber.Map{
		"success": data.Rainfall != nil || data.Regional != nil,
		"data":    data,
	})
}

// GetFetchLogs returns station fetch outcomes within a time range
func (h *Handler) GetFetchLogs(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := h.clock.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	data, err := h.repo.GetFetchLogs(c.UserContext(), from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch station fetch log")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// rainfallError maps engine failures to user-facing errors
func rainfallError(err error) error {
	var missing *domain.MissingTablesError
	switch {
	case errors.Is(err, domain.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, "Datos de lluvia temporalmente no disponibles: no se pudo consultar la estación")
	case errors.As(err, &missing):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Datos de lluvia temporalmente no disponibles: "+missing.Error())
	case errors.Is(err, domain.ErrNoHourlyRows):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Datos de lluvia temporalmente no disponibles: la estación no publicó lecturas horarias")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Datos de lluvia temporalmente no disponibles")
	}
}

// ErrorHandler renders every error as a JSON envelope with success=false
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   true,
		"message": message,
	})
}
