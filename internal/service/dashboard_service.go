package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/rainwatch/backend/internal/domain"
)

// DashboardService aggregates the station report and the regional batch
type DashboardService struct {
	stationSvc  *StationService
	regionalSvc *RegionalService
	clock       clockwork.Clock
	logger      *slog.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	stationSvc *StationService,
	regionalSvc *RegionalService,
	clock clockwork.Clock,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		stationSvc:  stationSvc,
		regionalSvc: regionalSvc,
		clock:       clock,
		logger:      logger,
	}
}

// GetDashboardData fetches both sources concurrently. A failing source is
// reported next to the data of the other.
func (s *DashboardService) GetDashboardData(ctx context.Context, hours, days int) domain.DashboardData {
	var (
		data domain.DashboardData
		wg   sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		report, err := s.stationSvc.GetReport(ctx)
		if err != nil {
			s.logger.Warn("dashboard rainfall fetch error", "error", err)
			data.RainfallError = err.Error()
			return
		}
		report = report.Truncate(hours, days)
		data.Rainfall = &report
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		regional, err := s.regionalSvc.GetRegional(ctx)
		if err != nil {
			s.logger.Warn("dashboard regional fetch error", "error", err)
			data.RegionalError = err.Error()
			return
		}
		data.Regional = &regional
	}()

	wg.Wait()

	data.Timestamp = s.clock.Now().UTC()
	return data
}

// GetRainfall returns the station report truncated to the requested lengths
func (s *DashboardService) GetRainfall(ctx context.Context, hours, days int) (domain.RainfallReport, error) {
	report, err := s.stationSvc.GetReport(ctx)
	if err != nil {
		return domain.RainfallReport{}, err
	}
	return report.Truncate(hours, days), nil
}

// GetRegional returns the regional batch
func (s *DashboardService) GetRegional(ctx context.Context) (domain.RegionalWeather, error) {
	return s.regionalSvc.GetRegional(ctx)
}
