package analysis

import (
	"math"

	"github.com/rainwatch/backend/internal/domain"
)

// Ensemble parameters.
const (
	ForecastWindow   = 12
	ConfidenceWindow = 8

	emaAlpha  = 0.6
	holtAlpha = 0.5
	holtBeta  = 0.3

	highConfidenceSamples   = 8
	mediumConfidenceSamples = 5
	highConfidenceMaxStdDev = 2.5
)

// Method keys.
const (
	MethodEMA    = "ema"
	MethodHolt   = "holt"
	MethodLinear = "linear"
	MethodMA3    = "ma3"
	MethodMA6    = "ma6"
	MethodWMA6   = "wma6"
)

// ConsensusFunc reduces the method estimates to the headline forecast.
type ConsensusFunc func(methods []domain.ForecastMethod) float64

// EMAConsensus reports the exponential moving average as the headline value.
func EMAConsensus(methods []domain.ForecastMethod) float64 {
	for _, m := range methods {
		if m.Key == MethodEMA {
			return m.ValueMM
		}
	}
	return 0
}

// MeanConsensus averages every method.
func MeanConsensus(methods []domain.ForecastMethod) float64 {
	if len(methods) == 0 {
		return 0
	}
	var sum float64
	for _, m := range methods {
		sum += m.ValueMM
	}
	return sum / float64(len(methods))
}

// ConsensusByName resolves a configured consensus strategy, defaulting to EMA.
func ConsensusByName(name string) ConsensusFunc {
	if name == "mean" {
		return MeanConsensus
	}
	return EMAConsensus
}

// RunEnsemble projects the next hour from recent values ordered newest-first.
// Only the most recent ForecastWindow values are used.
func RunEnsemble(values []float64, consensus ConsensusFunc) domain.Forecast {
	recent := head(values, ForecastWindow)
	if consensus == nil {
		consensus = EMAConsensus
	}

	methods := []domain.ForecastMethod{
		{Key: MethodEMA, Label: "Media móvil exponencial", ValueMM: clampRain(EMA(recent))},
		{Key: MethodHolt, Label: "Doble exponencial (nivel + tendencia)", ValueMM: clampRain(DoubleEMA(recent))},
		{Key: MethodLinear, Label: "Regresión lineal", ValueMM: clampRain(LinearRegression(recent))},
		{Key: MethodMA3, Label: "Media móvil 3h", ValueMM: clampRain(MovingAverage(recent, 3))},
		{Key: MethodMA6, Label: "Media móvil 6h", ValueMM: clampRain(MovingAverage(recent, 6))},
		{Key: MethodWMA6, Label: "Media móvil ponderada 6h", ValueMM: clampRain(WeightedMovingAverage(recent, 6))},
	}

	return domain.Forecast{
		Methods:     methods,
		ConsensusMM: clampRain(consensus(methods)),
		Confidence:  Confidence(recent),
		Samples:     len(recent),
	}
}

// EMA runs an exponential moving average from the oldest value to the newest.
func EMA(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	series := chronological(values)
	ema := series[0]
	for _, v := range series[1:] {
		ema = emaAlpha*v + (1-emaAlpha)*ema
	}
	return ema
}

// DoubleEMA is Holt's linear smoothing; the forecast is level + trend.
func DoubleEMA(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	series := chronological(values)
	level := series[0]
	trend := 0.0
	if len(series) > 1 {
		trend = series[1] - series[0]
	}
	for _, v := range series[1:] {
		prev := level
		level = holtAlpha*v + (1-holtAlpha)*(level+trend)
		trend = holtBeta*(level-prev) + (1-holtBeta)*trend
	}
	return level + trend
}

// LinearRegression fits ordinary least squares over the chronological series
// and predicts one step past the last index.
func LinearRegression(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}
	series := chronological(values)

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return sumY / fn
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	return intercept + slope*fn
}

// MovingAverage is the plain mean of the most recent window values.
func MovingAverage(values []float64, window int) float64 {
	recent := head(values, window)
	weights := make([]float64, len(recent))
	for i := range weights {
		weights[i] = 1
	}
	return weightedMean(recent, weights)
}

// WeightedMovingAverage weights the most recent value by the window size and
// the oldest value in the window by 1.
func WeightedMovingAverage(values []float64, window int) float64 {
	recent := head(values, window)
	weights := make([]float64, len(recent))
	for i := range weights {
		weights[i] = float64(len(recent) - i)
	}
	return weightedMean(recent, weights)
}

// Confidence grades the ensemble from the sample count and the dispersion of
// the most recent ConfidenceWindow values.
func Confidence(values []float64) string {
	n := len(values)
	sd := StdDev(head(values, ConfidenceWindow))
	switch {
	case n >= highConfidenceSamples && sd < highConfidenceMaxStdDev:
		return domain.ConfidenceHigh
	case n >= mediumConfidenceSamples:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := MovingAverage(values, len(values))
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)))
}

func weightedMean(values, weights []float64) float64 {
	var sum, total float64
	for i, v := range values {
		sum += v * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// chronological returns a copy of newest-first values in oldest-first order.
func chronological(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

func clampRain(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
