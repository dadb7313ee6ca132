package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rainwatch/backend/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, dashboardSvc *service.DashboardService, repo service.DataRepository, clock clockwork.Clock) {
	handler := NewHandler(dashboardSvc, repo, clock)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Get("/rainfall", handler.GetRainfall)
		api.Get("/regional", handler.GetRegional)
		api.Get("/dashboard", handler.GetDashboard)

		api.Get("/status/fetches", handler.GetFetchLogs)
	}
}
