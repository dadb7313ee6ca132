// Package analysis derives accumulation statistics, next-hour forecasts and
// flood-risk classification from an hourly rainfall series ordered newest-first.
package analysis

import "github.com/rainwatch/backend/internal/domain"

// WetThresholdMM is the rainfall above which an hour counts as wet.
const WetThresholdMM = 0.5

// Rolling window lengths, in hours.
const (
	peakWindow = 24
	wetWindow  = 24
)

// IsWet reports whether an hourly amount counts as a wet hour.
func IsWet(mm float64) bool {
	return mm > WetThresholdMM
}

// ComputeRolling derives window sums, streaks and the 24h peak from entries
// ordered newest-first. Windows longer than the series cover what is available.
func ComputeRolling(entries []domain.HourlyEntry) domain.RollingWindowStats {
	values := Rainfall(entries)

	stats := domain.RollingWindowStats{
		Sum1h:       windowSum(values, 1),
		Sum3h:       windowSum(values, 3),
		Sum6h:       windowSum(values, 6),
		Sum24h:      windowSum(values, 24),
		Sum48h:      windowSum(values, 48),
		WetHours24h: countWet(head(values, wetWindow)),
		WetStreak:   streak(values, true),
		DryStreak:   streak(values, false),
	}

	for i, e := range head(entries, peakWindow) {
		if i == 0 || e.RainMM > stats.Peak.RainMM {
			stats.Peak = domain.PeakHour{Label: e.Label, RainMM: e.RainMM}
		}
	}

	return stats
}

// Rainfall extracts the rainfall values of entries, preserving order.
func Rainfall(entries []domain.HourlyEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.RainMM
	}
	return out
}

func head[T any](s []T, n int) []T {
	if n < len(s) {
		return s[:n]
	}
	return s
}

func windowSum(values []float64, n int) float64 {
	var sum float64
	for _, v := range head(values, n) {
		sum += v
	}
	return sum
}

func countWet(values []float64) int {
	n := 0
	for _, v := range values {
		if IsWet(v) {
			n++
		}
	}
	return n
}

// streak counts leading entries whose wetness equals wet.
func streak(values []float64, wet bool) int {
	n := 0
	for _, v := range values {
		if IsWet(v) != wet {
			break
		}
		n++
	}
	return n
}
