package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for station and regional fetches.
type Metrics struct {
	StationFetches       *prometheus.CounterVec // labels: outcome={success,upstream_error,structure_error,empty}
	StationFetchDuration prometheus.Histogram
	HourlyRows           prometheus.Gauge
	CurrentRiskLevel     prometheus.Gauge // 0 green, 1 yellow, 2 red

	RegionalFetches *prometheus.CounterVec // labels: outcome={success,error}
	CacheLookups    *prometheus.CounterVec // labels: cache={rainfall,regional}, result={hit,miss}
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		StationFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainwatch",
			Name:      "station_fetches_total",
			Help:      help("Station report fetches by outcome."),
		}, []string{"outcome"}),
		StationFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainwatch",
			Name:      "station_fetch_duration_seconds",
			Help:      help("Duration of a station fetch and analysis cycle."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		HourlyRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainwatch",
			Name:      "station_hourly_rows",
			Help:      help("Hourly rows parsed from the latest station report."),
		}),
		CurrentRiskLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainwatch",
			Name:      "current_risk_level",
			Help:      help("Latest flood risk level: 0 green, 1 yellow, 2 red."),
		}),
		RegionalFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainwatch",
			Name:      "regional_location_fetches_total",
			Help:      help("Regional forecast fetches per location by outcome."),
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainwatch",
			Name:      "cache_lookups_total",
			Help:      help("Report cache lookups by cache and result."),
		}, []string{"cache", "result"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.StationFetches,
		m.StationFetchDuration,
		m.HourlyRows,
		m.CurrentRiskLevel,
		m.RegionalFetches,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
