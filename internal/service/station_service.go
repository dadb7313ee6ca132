package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/net/html/charset"

	"github.com/rainwatch/backend/internal/analysis"
	"github.com/rainwatch/backend/internal/domain"
	"github.com/rainwatch/backend/internal/observability"
	"github.com/rainwatch/backend/internal/scraper"
	"github.com/rainwatch/backend/pkg/utils"
)

// maxReportBytes caps the size of the upstream HTML report.
const maxReportBytes = 8 << 20

// StationConfig configures a StationService.
type StationConfig struct {
	URL       string
	Name      string
	Timeout   time.Duration
	CacheTTL  time.Duration
	Consensus analysis.ConsensusFunc
}

// StationService fetches the station report and turns it into a RainfallReport
type StationService struct {
	url        string
	name       string
	httpClient *http.Client
	consensus  analysis.ConsensusFunc
	clock      clockwork.Clock
	repo       DataRepository
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *ttlCache[domain.RainfallReport]

	wgBg sync.WaitGroup // tracks background fetch-log writes for graceful shutdown
}

// NewStationService creates a new station service
func NewStationService(cfg StationConfig, repo DataRepository, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *StationService {
	if cfg.Consensus == nil {
		cfg.Consensus = analysis.EMAConsensus
	}
	return &StationService{
		url:  cfg.URL,
		name: cfg.Name,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		consensus: cfg.Consensus,
		clock:     clock,
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		cache:     newTTLCache[domain.RainfallReport]("rainfall", cfg.CacheTTL, clock, metrics),
	}
}

// WaitBackground blocks until all background fetch-log writes complete.
func (s *StationService) WaitBackground() {
	s.wgBg.Wait()
}

// GetReport returns the current station report, served from cache when fresh.
func (s *StationService) GetReport(ctx context.Context) (domain.RainfallReport, error) {
	return s.cache.get(ctx, s.refresh)
}

func (s *StationService) refresh(ctx context.Context) (domain.RainfallReport, error) {
	start := s.clock.Now()

	report, err := s.fetchAndAnalyze(ctx, start)
	elapsed := s.clock.Since(start)
	s.metrics.StationFetchDuration.Observe(elapsed.Seconds())
	s.metrics.StationFetches.WithLabelValues(fetchOutcome(err)).Inc()

	entry := domain.FetchLog{
		FetchedAt:  start,
		Station:    s.name,
		Success:    err == nil,
		HourlyRows: len(report.Hourly),
		DailyRows:  len(report.Daily),
		Duration:   elapsed,
	}
	if err != nil {
		entry.Message = err.Error()
		s.logger.Warn("station fetch failed", "url", s.url, "error", err)
	} else {
		s.metrics.HourlyRows.Set(float64(len(report.Hourly)))
		s.metrics.CurrentRiskLevel.Set(analysis.RiskLevelValue(report.Risk.Level))
		s.logger.Info("station report refreshed",
			"hourly_rows", len(report.Hourly),
			"daily_rows", len(report.Daily),
			"risk", report.Risk.Level,
			"duration", elapsed)
	}
	s.saveFetchLog(entry)

	return report, err
}

func (s *StationService) saveFetchLog(entry domain.FetchLog) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveFetchLog(bgCtx, entry); err != nil {
			s.logger.Error("failed to save fetch log", "error", err)
		}
	}()
}

func (s *StationService) fetchAndAnalyze(ctx context.Context, now time.Time) (domain.RainfallReport, error) {
	page, err := s.fetch(ctx)
	if err != nil {
		return domain.RainfallReport{}, err
	}

	tables := scraper.Extract(page)
	for _, kind := range []scraper.TableKind{scraper.TableCurrent, scraper.TableDaily} {
		if _, ok := tables[kind]; !ok {
			s.logger.Debug("optional table not found", "table", kind)
		}
	}

	report, err := Analyze(tables, s.consensus)
	if err != nil {
		return domain.RainfallReport{}, fmt.Errorf("station: %w", err)
	}
	report.Meta.Station = s.name
	report.Meta.SourceURL = s.url
	report.Meta.FetchedAt = now.UTC()
	return report, nil
}

func (s *StationService) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("station: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("station: failed to fetch report: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("station: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxReportBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("station: failed to decode report charset: %w: %w", domain.ErrUpstream, err)
	}
	page, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("station: failed to read report: %w: %w", domain.ErrUpstream, err)
	}
	return string(page), nil
}

// Analyze builds a report from extracted tables. The hourly table is required;
// current and daily totals are optional.
func Analyze(tables scraper.Tables, consensus analysis.ConsensusFunc) (domain.RainfallReport, error) {
	hourlyRows, ok := tables[scraper.TableHourly]
	if !ok {
		return domain.RainfallReport{}, &domain.MissingTablesError{Tables: []string{string(scraper.TableHourly)}}
	}
	hourly := scraper.ParseHourly(hourlyRows)
	// undated rows sort last; they are shown but never enter the time series
	dated := datedPrefix(hourly)
	if len(dated) == 0 {
		return domain.RainfallReport{}, domain.ErrNoHourlyRows
	}

	daily := []domain.DailyEntry{}
	if rs, ok := tables[scraper.TableDaily]; ok {
		daily = scraper.ParseDaily(rs)
	}
	var current *domain.CurrentTotals
	if rs, ok := tables[scraper.TableCurrent]; ok {
		current = scraper.ParseCurrent(rs)
	}

	stats := analysis.ComputeRolling(dated)
	forecast := analysis.RunEnsemble(analysis.Rainfall(dated), consensus)

	return domain.RainfallReport{
		Risk:      analysis.ClassifyRisk(stats.Sum3h, stats.Sum6h, stats.Sum24h),
		Intensity: analysis.ClassifyIntensity(dated[0].RainMM),
		Trend:     analysis.ClassifyTrend(stats.Sum3h, stats.Sum6h),
		Stats:     roundStats(stats),
		Forecast:  roundForecast(forecast),
		Current:   current,
		Hourly:    hourly,
		Daily:     daily,
		Meta:      domain.StationMeta{LastObservation: dated[0].Time},
	}, nil
}

func datedPrefix(entries []domain.HourlyEntry) []domain.HourlyEntry {
	for i, e := range entries {
		if e.Time == nil {
			return entries[:i]
		}
	}
	return entries
}

func roundStats(s domain.RollingWindowStats) domain.RollingWindowStats {
	s.Sum1h = utils.RoundTo(s.Sum1h, 2)
	s.Sum3h = utils.RoundTo(s.Sum3h, 2)
	s.Sum6h = utils.RoundTo(s.Sum6h, 2)
	s.Sum24h = utils.RoundTo(s.Sum24h, 2)
	s.Sum48h = utils.RoundTo(s.Sum48h, 2)
	return s
}

func roundForecast(f domain.Forecast) domain.Forecast {
	methods := make([]domain.ForecastMethod, len(f.Methods))
	for i, m := range f.Methods {
		m.ValueMM = utils.RoundTo(m.ValueMM, 2)
		methods[i] = m
	}
	f.Methods = methods
	f.ConsensusMM = utils.RoundTo(f.ConsensusMM, 2)
	return f
}

func fetchOutcome(err error) string {
	var missing *domain.MissingTablesError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_error"
	case errors.As(err, &missing):
		return "structure_error"
	case errors.Is(err, domain.ErrNoHourlyRows):
		return "empty"
	default:
		return "error"
	}
}
