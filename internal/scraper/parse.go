package scraper

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rainwatch/backend/internal/domain"
)

// Accepted date-time layouts, tried in this order.
var timestampLayouts = []string{
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006 15:04",
}

const dateLayout = "2/1/2006"

// Plausibility ranges for sensor readings. Values outside are reported as unavailable.
const (
	minTempC    = 5.0
	maxTempC    = 45.0
	maxHumidity = 100.0
)

var (
	regionZone = time.FixedZone("UTC-6", int(domain.RegionUTCOffset/time.Second))

	// meridiemRe matches a trailing "a.m.", "p. m.", "AM", ... suffix.
	meridiemRe = regexp.MustCompile(`(?i)\s*([ap])\s*\.?\s*m\s*\.?\s*$`)
)

// ParseNumber parses a localized numeric cell. Comma is accepted as decimal
// separator and trailing unit text is ignored. Anything else yields 0.
func ParseNumber(s string) float64 {
	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(s), "") {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
			continue
		}
		break
	}
	num := b.String()
	if num == "" {
		return 0
	}

	comma, dot := strings.LastIndex(num, ","), strings.LastIndex(num, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		num = strings.ReplaceAll(num, ".", "")
		num = strings.Replace(num, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		num = strings.ReplaceAll(num, ",", "")
	default:
		num = strings.Replace(num, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRainfall parses a rainfall cell. Rainfall is never negative.
func ParseRainfall(s string) float64 {
	return max(ParseNumber(s), 0)
}

// ParseTemperature returns nil unless the reading is within the plausible range.
func ParseTemperature(s string) *float64 {
	v := ParseNumber(s)
	if v < minTempC || v > maxTempC {
		return nil
	}
	return &v
}

// ParseHumidity returns nil unless 0 < v <= 100.
func ParseHumidity(s string) *float64 {
	v := ParseNumber(s)
	if v <= 0 || v > maxHumidity {
		return nil
	}
	return &v
}

// ParseTimestamp parses a local station timestamp and returns it in UTC. The
// wall clock is read at the fixed regional offset. Unrecognised input yields nil.
func ParseTimestamp(s string) *time.Time {
	s = normalizeClock(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, regionZone)
		if err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// ParseDate is ParseTimestamp extended with a date-only layout, used for daily totals.
func ParseDate(s string) *time.Time {
	if t := ParseTimestamp(s); t != nil {
		return t
	}
	t, err := time.ParseInLocation(dateLayout, normalizeClock(s), regionZone)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func normalizeClock(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if m := meridiemRe.FindStringSubmatchIndex(s); m != nil {
		s = strings.TrimSpace(s[:m[0]]) + " " + strings.ToUpper(s[m[2]:m[3]]) + "M"
	}
	return s
}

// column layouts; -1 means the column is absent.
type hourlyLayout struct{ date, rain, temp, hum int }
type currentLayout struct{ date, sinceReset, previous int }
type dailyLayout struct{ date, rain int }

func resolveHourlyLayout(header []string) hourlyLayout {
	def := hourlyLayout{date: 0, rain: 1, temp: 2, hum: 3}
	if header == nil {
		return def
	}
	l := hourlyLayout{date: -1, rain: -1, temp: -1, hum: -1}
	for i, h := range header {
		f := fold(h)
		switch {
		case l.rain < 0 && containsAny(f, "lluvia", "precip"):
			l.rain = i
		case l.temp < 0 && containsAny(f, "temp"):
			l.temp = i
		case l.hum < 0 && (containsAny(f, "humedad") || f == "hr" || f == "hr (%)"):
			l.hum = i
		case l.date < 0 && containsAny(f, "fecha", "hora"):
			l.date = i
		}
	}
	if l.rain < 0 {
		return def
	}
	if l.date < 0 {
		l.date = 0
	}
	return l
}

func resolveCurrentLayout(header []string) currentLayout {
	def := currentLayout{date: 0, sinceReset: 1, previous: 2}
	if header == nil {
		return def
	}
	l := currentLayout{date: 0, sinceReset: -1, previous: -1}
	for i, h := range header {
		f := fold(h)
		switch {
		case l.previous < 0 && containsAny(f, "anterior", "ayer", "previo"):
			l.previous = i
		case l.sinceReset < 0 && containsAny(f, "lluvia", "acumulad", "desde", "precip"):
			l.sinceReset = i
		}
	}
	if l.sinceReset < 0 && l.previous < 0 {
		return def
	}
	return l
}

func resolveDailyLayout(header []string) dailyLayout {
	def := dailyLayout{date: 0, rain: 1}
	if header == nil {
		return def
	}
	for i, h := range header {
		if containsAny(fold(h), "lluvia", "precip", "total") {
			return dailyLayout{date: 0, rain: i}
		}
	}
	return def
}

func cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

// ParseHourly converts the hourly table into entries ordered newest-first.
// Rows without a rainfall cell are skipped.
func ParseHourly(rs RowSet) []domain.HourlyEntry {
	l := resolveHourlyLayout(rs.Header)
	out := make([]domain.HourlyEntry, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		rain, ok := cell(row, l.rain)
		if !ok {
			continue
		}
		label, _ := cell(row, l.date)
		e := domain.HourlyEntry{
			Label:  label,
			Time:   ParseTimestamp(label),
			RainMM: ParseRainfall(rain),
		}
		if v, ok := cell(row, l.temp); ok {
			e.TempC = ParseTemperature(v)
		}
		if v, ok := cell(row, l.hum); ok {
			e.Humidity = ParseHumidity(v)
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b domain.HourlyEntry) int { return newestFirst(a.Time, b.Time) })
	return out
}

// ParseCurrent converts the current-totals table. It returns nil when the table has no rows.
func ParseCurrent(rs RowSet) *domain.CurrentTotals {
	if len(rs.Rows) == 0 {
		return nil
	}
	l := resolveCurrentLayout(rs.Header)
	row := rs.Rows[0]
	label, _ := cell(row, l.date)
	ct := &domain.CurrentTotals{
		Label:     label,
		Time:      ParseTimestamp(label),
		ResetHour: domain.DailyResetHour,
	}
	if v, ok := cell(row, l.sinceReset); ok {
		ct.SinceResetMM = ParseRainfall(v)
	}
	if v, ok := cell(row, l.previous); ok {
		ct.PreviousPeriodMM = ParseRainfall(v)
	}
	return ct
}

// ParseDaily converts the daily table into entries ordered newest-first.
func ParseDaily(rs RowSet) []domain.DailyEntry {
	l := resolveDailyLayout(rs.Header)
	out := make([]domain.DailyEntry, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		rain, ok := cell(row, l.rain)
		if !ok {
			continue
		}
		label, _ := cell(row, l.date)
		out = append(out, domain.DailyEntry{
			Label:  label,
			Time:   ParseDate(label),
			RainMM: ParseRainfall(rain),
		})
	}
	slices.SortStableFunc(out, func(a, b domain.DailyEntry) int { return newestFirst(a.Time, b.Time) })
	return out
}

// newestFirst orders timestamps descending; entries without a timestamp sort last.
func newestFirst(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}
