package finance

import (
	"fmt"
	"math"
)

// DefaultInitialValue is the starting equity of every simulation unless overridden.
const DefaultInitialValue = 100.0

type simConfig struct {
	initialValue float64
	riskFree     float64
}

// Option tunes a simulation run.
type Option func(*simConfig)

// WithInitialValue sets the starting portfolio value (default 100).
func WithInitialValue(v float64) Option {
	return func(c *simConfig) { c.initialValue = v }
}

// WithRiskFreeRate sets the annual risk-free rate used by the Sharpe ratio (default 0).
func WithRiskFreeRate(rf float64) Option {
	return func(c *simConfig) { c.riskFree = rf }
}

// Simulate replays a weighted basket over the dates every weighted ticker has
// in common, rebalancing to target weights on the cadence's schedule, and
// returns the equity curve, its drawdown and the headline metrics.
//
// Tickers present in prices but absent (or non-positive) in weights are ignored.
func Simulate(prices map[string]PriceSeries, weights map[string]float64, cadence Cadence, opts ...Option) (*SimulationResult, error) {
	cfg := simConfig{initialValue: DefaultInitialValue}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.initialValue <= 0 || math.IsNaN(cfg.initialValue) || math.IsInf(cfg.initialValue, 0) {
		return nil, fmt.Errorf("invalid initial value: %f", cfg.initialValue)
	}
	switch cadence {
	case Daily, Weekly, Monthly:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCadence, cadence)
	}

	w := NormalizeWeights(weights)
	if len(w) == 0 {
		return nil, ErrNoPositiveWeight
	}
	tickers := sortedTickers(w)

	for _, t := range tickers {
		if n := len(prices[t]); n < 2 {
			return nil, fmt.Errorf("%w for ticker %s: %d price points", ErrInsufficientData, t, n)
		}
	}

	aligned, err := alignSeries(prices, tickers)
	if err != nil {
		return nil, err
	}

	for _, d := range aligned.dates {
		for _, t := range tickers {
			if p := aligned.prices[d][t]; p <= 0 {
				return nil, fmt.Errorf("invalid price for %s on %s: %f", t, d, p)
			}
		}
	}

	rebalance := rebalanceDates(aligned.dates, cadence)
	values := simulateEquity(aligned, tickers, w, rebalance, cfg.initialValue)

	metrics, dd := computeMetrics(aligned.dates, values, cfg.riskFree)

	result := &SimulationResult{
		Equity:   make([]Point, len(values)),
		Drawdown: make([]Point, len(values)),
		Metrics:  metrics,
		Weights:  w,
	}
	for i, d := range aligned.dates {
		result.Equity[i] = Point{Date: d, Value: values[i]}
		result.Drawdown[i] = Point{Date: d, Value: dd[i]}
	}
	return result, nil
}

// simulateEquity walks the aligned timeline holding share counts. On a
// rebalance date holdings are marked to market and reset to target weights at
// that day's closes before the day's value is taken.
func simulateEquity(a *alignedPrices, tickers []string, w map[string]float64, rebalance map[Date]bool, initialValue float64) []float64 {
	values := make([]float64, len(a.dates))
	shares := make(map[string]float64, len(tickers))

	first := a.prices[a.dates[0]]
	for _, t := range tickers {
		shares[t] = initialValue * w[t] / first[t]
	}
	values[0] = initialValue

	for i := 1; i < len(a.dates); i++ {
		d := a.dates[i]
		px := a.prices[d]
		if rebalance[d] {
			current := marketValue(px, shares, tickers)
			for _, t := range tickers {
				shares[t] = current * w[t] / px[t]
			}
		}
		values[i] = marketValue(px, shares, tickers)
	}
	return values
}

func marketValue(px map[string]float64, shares map[string]float64, tickers []string) float64 {
	v := 0.0
	for _, t := range tickers {
		v += px[t] * shares[t]
	}
	return v
}
