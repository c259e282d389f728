package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(start string, closes ...float64) PriceSeries {
	d := MustParseDate(start)
	out := make(PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = PriceRow{Date: d.AddDays(i), Close: c}
	}
	return out
}

func rows(pairs ...any) PriceSeries {
	out := make(PriceSeries, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, PriceRow{Date: MustParseDate(pairs[i].(string)), Close: pairs[i+1].(float64)})
	}
	return out
}

func TestSimulateTwoAssetMonthly(t *testing.T) {
	prices := map[string]PriceSeries{
		"A": rows("2020-01-01", 100.0, "2020-02-01", 110.0, "2020-03-01", 120.0),
		"B": rows("2020-01-01", 100.0, "2020-02-01", 90.0, "2020-03-01", 80.0),
	}
	res, err := Simulate(prices, map[string]float64{"A": 1, "B": 1}, Monthly)
	require.NoError(t, err)
	require.Len(t, res.Equity, 3)

	assert.Equal(t, 100.0, res.Equity[0].Value)
	assert.InDelta(t, 100.0, res.Equity[1].Value, 1e-9)
	assert.InDelta(t, 50*120.0/110+50*80.0/90, res.Equity[2].Value, 1e-9)
	assert.InDelta(t, 98.98989898989899, res.Equity[2].Value, 1e-9)
	assert.Equal(t, map[string]float64{"A": 0.5, "B": 0.5}, res.Weights)
}

func TestSimulateBuyAndHoldDriftsWithoutRebalance(t *testing.T) {
	// all dates inside one month: only the first date rebalances
	prices := map[string]PriceSeries{
		"A": series("2020-01-06", 100, 110, 120),
		"B": series("2020-01-06", 100, 90, 80),
	}
	res, err := Simulate(prices, map[string]float64{"A": 1, "B": 1}, Monthly)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Equity[2].Value, 1e-9) // 0.5*120 + 0.5*80

	daily, err := Simulate(prices, map[string]float64{"A": 1, "B": 1}, Daily)
	require.NoError(t, err)
	assert.InDelta(t, 50*120.0/110+50*80.0/90, daily.Equity[2].Value, 1e-9)
}

func TestSimulateSingleTickerIgnoresCadence(t *testing.T) {
	prices := map[string]PriceSeries{
		"SPY": series("2020-02-03", 300, 290, 250, 270, 310, 305, 280),
		"TLT": series("2020-02-03", 140, 142, 150, 149, 145, 146, 147),
	}
	for _, c := range Cadences {
		t.Run(string(c), func(t *testing.T) {
			res, err := Simulate(prices, map[string]float64{"SPY": 2, "TLT": 0}, c, WithInitialValue(1000))
			require.NoError(t, err)
			require.Len(t, res.Equity, 7)
			for i, p := range res.Equity {
				assert.InDelta(t, 1000*prices["SPY"][i].Close/300, p.Value, 1e-9)
			}
			assert.Equal(t, map[string]float64{"SPY": 1}, res.Weights)
		})
	}
}

func TestSimulateInvariants(t *testing.T) {
	prices := map[string]PriceSeries{
		"SPY": series("2020-02-03", 300, 290, 250, 270, 310, 305, 280, 320, 330, 300),
		"GLD": series("2020-02-03", 150, 151, 149, 155, 160, 158, 157, 150, 152, 161),
		"TLT": series("2020-02-03", 140, 142, 150, 149, 145, 146, 147, 139, 138, 141),
	}
	res, err := Simulate(prices, map[string]float64{"SPY": 0.6, "GLD": 0.2, "TLT": 0.2}, Weekly, WithInitialValue(250))
	require.NoError(t, err)

	assert.Equal(t, 250.0, res.Equity[0].Value)
	require.Equal(t, len(res.Equity), len(res.Drawdown))
	peak := math.Inf(-1)
	for i := range res.Equity {
		assert.Equal(t, res.Equity[i].Date, res.Drawdown[i].Date)
		if i > 0 {
			assert.True(t, res.Equity[i-1].Date.Before(res.Equity[i].Date))
		}
		peak = math.Max(peak, res.Equity[i].Value)
		assert.LessOrEqual(t, res.Drawdown[i].Value, 0.0)
		if res.Equity[i].Value == peak {
			assert.Equal(t, 0.0, res.Drawdown[i].Value)
		}
	}

	again, err := Simulate(prices, map[string]float64{"TLT": 0.2, "GLD": 0.2, "SPY": 0.6}, Weekly, WithInitialValue(250))
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestSimulateAlignmentIsIntersection(t *testing.T) {
	prices := map[string]PriceSeries{
		"A": rows("2020-01-01", 100.0, "2020-01-02", 105.0, "2020-01-03", 110.0),
		"B": rows("2020-01-03", 55.0, "2020-01-01", 50.0),
	}
	res, err := Simulate(prices, map[string]float64{"A": 1, "B": 1}, Daily)
	require.NoError(t, err)
	assert.Equal(t, []Date{MustParseDate("2020-01-01"), MustParseDate("2020-01-03")}, res.Dates())
	assert.InDelta(t, 110.0, res.Equity[1].Value, 1e-9)
}

func TestSimulateRecoveryScenario(t *testing.T) {
	prices := map[string]PriceSeries{"X": series("2021-03-01", 100, 90, 80, 95, 100, 110)}
	res, err := Simulate(prices, map[string]float64{"X": 1}, Daily)
	require.NoError(t, err)

	m := res.Metrics
	assert.InDelta(t, -0.2, m.MaxDrawdown, 1e-12)
	require.NotNil(t, m.TimeToRecoveryDays)
	assert.Equal(t, 4, *m.TimeToRecoveryDays)
	assert.InDelta(t, 0.1, m.TotalReturn, 1e-12)

	r := DailyReturns(res.Values())
	assert.InDelta(t, AnnualizedVolatility(r), m.AnnVol, 1e-12)
	assert.InDelta(t, SharpeRatio(r, 0), m.Sharpe, 1e-12)
	assert.InEpsilon(t, math.Pow(1.1, DaysPerYear/5)-1, m.AnnReturn, 1e-9)
}

func TestSimulateRiskFreeRateLowersSharpe(t *testing.T) {
	prices := map[string]PriceSeries{"X": series("2021-03-01", 100, 101, 99, 103, 104, 102, 106)}
	base, err := Simulate(prices, map[string]float64{"X": 1}, Daily)
	require.NoError(t, err)
	withRf, err := Simulate(prices, map[string]float64{"X": 1}, Daily, WithRiskFreeRate(0.05))
	require.NoError(t, err)
	assert.Less(t, withRf.Metrics.Sharpe, base.Metrics.Sharpe)
	assert.Equal(t, base.Metrics.AnnVol, withRf.Metrics.AnnVol)
}

func TestSimulateErrors(t *testing.T) {
	good := series("2020-01-01", 1, 2, 3)
	tests := []struct {
		name    string
		prices  map[string]PriceSeries
		weights map[string]float64
		cadence Cadence
		opts    []Option
		is      error
		contain string
	}{
		{
			name:    "no positive weight",
			prices:  map[string]PriceSeries{"A": good},
			weights: map[string]float64{"A": 0, "B": -1, "C": math.NaN()},
			cadence: Daily,
			is:      ErrNoPositiveWeight,
			contain: "set at least one weight > 0",
		},
		{
			name:    "single point",
			prices:  map[string]PriceSeries{"A": good, "B": series("2020-01-01", 5)},
			weights: map[string]float64{"A": 1, "B": 1},
			cadence: Daily,
			is:      ErrInsufficientData,
			contain: "B",
		},
		{
			name:    "missing series",
			prices:  map[string]PriceSeries{"A": good},
			weights: map[string]float64{"A": 1, "ZZZ": 1},
			cadence: Daily,
			is:      ErrInsufficientData,
			contain: "ZZZ",
		},
		{
			name:    "disjoint dates",
			prices:  map[string]PriceSeries{"A": good, "B": series("2021-01-01", 1, 2, 3)},
			weights: map[string]float64{"A": 1, "B": 1},
			cadence: Monthly,
			is:      ErrInsufficientAlignedData,
			contain: "A=3, B=3",
		},
		{
			name:    "bad cadence",
			prices:  map[string]PriceSeries{"A": good},
			weights: map[string]float64{"A": 1},
			cadence: "yearly",
			is:      ErrUnknownCadence,
		},
		{
			name:    "zero initial value",
			prices:  map[string]PriceSeries{"A": good},
			weights: map[string]float64{"A": 1},
			cadence: Daily,
			opts:    []Option{WithInitialValue(0)},
			contain: "invalid initial value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Simulate(tt.prices, tt.weights, tt.cadence, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, res)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.contain != "" {
				assert.Contains(t, err.Error(), tt.contain)
			}
		})
	}
}
