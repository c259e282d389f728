package finance

import "math"

// TradingDaysPerYear is the annualization factor for daily statistics.
const TradingDaysPerYear = 252.0

// DaysPerYear converts calendar days into years for compounding.
const DaysPerYear = 365.25

// DailyReturns returns the simple change between consecutive values.
// A zero previous value yields a zero return.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/prev-1)
	}
	return out
}

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the sample standard deviation (divisor n-1), 0 below two points.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	variance := 0.0
	for _, x := range xs {
		diff := x - m
		variance += diff * diff
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}
