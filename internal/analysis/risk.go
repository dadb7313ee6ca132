package analysis

import "github.com/rainwatch/backend/internal/domain"

// Risk thresholds in millimetres.
const (
	red3h  = 20.0
	red6h  = 35.0
	red24h = 70.0

	yellow3h  = 10.0
	yellow6h  = 18.0
	yellow24h = 40.0
)

var riskDescriptors = map[string]domain.RiskDescriptor{
	domain.RiskGreen:  {Level: domain.RiskGreen, Label: "Riesgo bajo", Emoji: "🟢"},
	domain.RiskYellow: {Level: domain.RiskYellow, Label: "Riesgo moderado", Emoji: "🟡"},
	domain.RiskRed:    {Level: domain.RiskRed, Label: "Riesgo alto", Emoji: "🔴"},
}

// Trend labels.
const (
	TrendRising  = "subiendo"
	TrendFalling = "bajando"
	TrendSteady  = "estable"
)

// Intensity labels.
const (
	IntensityHeavy    = "intensa"
	IntensityModerate = "moderada"
	IntensityLight    = "ligera"
	IntensityNone     = "sin lluvia"
)

// ClassifyRisk maps rolling sums to a risk level. Red is checked first.
func ClassifyRisk(sum3h, sum6h, sum24h float64) domain.RiskDescriptor {
	switch {
	case sum3h >= red3h || sum6h >= red6h || sum24h >= red24h:
		return riskDescriptors[domain.RiskRed]
	case sum3h >= yellow3h || sum6h >= yellow6h || sum24h >= yellow24h:
		return riskDescriptors[domain.RiskYellow]
	default:
		return riskDescriptors[domain.RiskGreen]
	}
}

// ClassifyTrend compares the 3h sum against the 6h sum. The ratio is a proxy
// for acceleration, not a derivative of the series.
func ClassifyTrend(sum3h, sum6h float64) string {
	switch {
	case sum3h > 1.3*sum6h:
		return TrendRising
	case sum3h < 0.7*sum6h:
		return TrendFalling
	default:
		return TrendSteady
	}
}

// ClassifyIntensity labels the most recent hour's rainfall.
func ClassifyIntensity(latestMM float64) string {
	switch {
	case latestMM >= 12:
		return IntensityHeavy
	case latestMM >= 4:
		return IntensityModerate
	case latestMM > WetThresholdMM:
		return IntensityLight
	default:
		return IntensityNone
	}
}

// RiskLevelValue orders levels for gauges: green 0, yellow 1, red 2.
func RiskLevelValue(level string) float64 {
	switch level {
	case domain.RiskRed:
		return 2
	case domain.RiskYellow:
		return 1
	default:
		return 0
	}
}
