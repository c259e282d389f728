package finance

import "math"

// Drawdown returns, for every point, the fractional decline from the highest
// value seen so far. Values are always <= 0.
func Drawdown(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, v/peak-1)
	}
	return out
}

// MaxDrawdown is the deepest point of a drawdown series, 0 when empty.
func MaxDrawdown(dd []float64) float64 {
	if len(dd) == 0 {
		return 0
	}
	m := dd[0]
	for _, v := range dd[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// TimeToRecoveryDays measures the calendar days between the peak preceding
// the deepest drawdown and the first later date where equity is back at that
// peak. It returns nil when the series ends before recovering.
func TimeToRecoveryDays(dates []Date, values, dd []float64) *int {
	if len(values) == 0 || len(dates) != len(values) || len(dd) != len(values) {
		return nil
	}

	trough := 0
	for i := 1; i < len(dd); i++ {
		if dd[i] < dd[trough] {
			trough = i
		}
	}

	// ties go to the later index: the peak is the last time that high was hit
	peakVal := math.Inf(-1)
	peakIdx := 0
	for i := 0; i <= trough; i++ {
		if values[i] >= peakVal {
			peakVal = values[i]
			peakIdx = i
		}
	}

	for i := trough; i < len(values); i++ {
		if values[i] >= peakVal {
			days := int(math.Round(dates[i].DaysSince(dates[peakIdx])))
			return &days
		}
	}
	return nil
}

// AnnualizedVolatility scales the sample deviation of daily returns to a year.
func AnnualizedVolatility(returns []float64) float64 {
	return StdDev(returns) * math.Sqrt(TradingDaysPerYear)
}

// AnnualizedReturn compounds the total return over the calendar span of dates.
func AnnualizedReturn(dates []Date, values []float64) float64 {
	if len(values) < 2 || len(dates) < 2 {
		return 0
	}
	years := dates[len(dates)-1].DaysSince(dates[0]) / DaysPerYear
	if years <= 0 {
		return 0
	}
	total := TotalReturn(values)
	return math.Pow(1+total, 1/years) - 1
}

// SharpeRatio is the annualized mean excess daily return over its deviation.
// rfAnnual is converted to a daily rate by geometric de-annualization.
func SharpeRatio(returns []float64, rfAnnual float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	rfDaily := math.Pow(1+rfAnnual, 1/TradingDaysPerYear) - 1
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - rfDaily
	}
	sd := StdDev(excess)
	if sd == 0 {
		return 0
	}
	return Mean(excess) / sd * math.Sqrt(TradingDaysPerYear)
}

// TotalReturn is last/first - 1, 0 if the series is too short or starts at 0.
func TotalReturn(values []float64) float64 {
	if len(values) < 2 || values[0] == 0 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

// computeMetrics derives every headline statistic from an equity curve.
func computeMetrics(dates []Date, values []float64, rfAnnual float64) (Metrics, []float64) {
	dd := Drawdown(values)
	returns := DailyReturns(values)
	return Metrics{
		TotalReturn:        TotalReturn(values),
		MaxDrawdown:        MaxDrawdown(dd),
		TimeToRecoveryDays: TimeToRecoveryDays(dates, values, dd),
		AnnVol:             AnnualizedVolatility(returns),
		Sharpe:             SharpeRatio(returns, rfAnnual),
		AnnReturn:          AnnualizedReturn(dates, values),
	}, dd
}
