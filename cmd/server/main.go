package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/rainwatch/backend/internal/analysis"
	"github.com/rainwatch/backend/internal/config"
	"github.com/rainwatch/backend/internal/delivery/http"
	"github.com/rainwatch/backend/internal/domain"
	"github.com/rainwatch/backend/internal/logging"
	"github.com/rainwatch/backend/internal/observability"
	"github.com/rainwatch/backend/internal/repository/postgres"
	"github.com/rainwatch/backend/internal/service"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg, "rainwatch")
	if envErr != nil {
		log.Info("no .env file found, using system environment")
	}
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Dependency Injection: Repositories
	dataRepo, closeRepo := openRepository(cfg, log)
	defer closeRepo()

	// Dependency Injection: Services
	stationSvc := service.NewStationService(service.StationConfig{
		URL:       cfg.StationURL,
		Name:      cfg.StationName,
		Timeout:   cfg.FetchTimeout,
		CacheTTL:  cfg.CacheTTL,
		Consensus: analysis.ConsensusByName(cfg.ForecastConsensus),
	}, dataRepo, clock, log, metrics)
	regionalSvc := service.NewRegionalService(service.RegionalConfig{
		BaseURL:     cfg.RegionalAPIURL,
		Locations:   domain.DefaultLocations,
		StationLat:  cfg.StationLat,
		StationLon:  cfg.StationLon,
		Timeout:     cfg.FetchTimeout,
		CacheTTL:    cfg.CacheTTL,
		Concurrency: cfg.RegionalConcurrency,
	}, clock, log, metrics)
	dashboardSvc := service.NewDashboardService(stationSvc, regionalSvc, clock, log)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Rainwatch API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 5*time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, dashboardSvc, dataRepo, clock)

	// Graceful shutdown
	go func() {
		log.Info("server starting", "port", cfg.Port, "station", cfg.StationName)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	stationSvc.WaitBackground()
	log.Info("server exited gracefully")
}

// openRepository connects to PostgreSQL when configured and falls back to the
// in-memory repository otherwise.
func openRepository(cfg *config.Config, log *slog.Logger) (service.DataRepository, func()) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set, keeping fetch log in memory")
		return postgres.NewMockRepository(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn("could not connect to database, keeping fetch log in memory", "error", err)
		return postgres.NewMockRepository(), func() {}
	}

	repo := postgres.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Warn("could not prepare fetch log schema, keeping fetch log in memory", "error", err)
		pool.Close()
		return postgres.NewMockRepository(), func() {}
	}

	log.Info("connected to PostgreSQL")
	return repo, pool.Close
}
