package finance

import (
	"fmt"
	"strings"
)

// PriceRow is one daily close of one instrument.
type PriceRow struct {
	Date  Date    `json:"date"`
	Close float64 `json:"close"`
}

// PriceSeries is the daily history of one ticker. Order is not assumed by the
// simulator; duplicate dates resolve to the last row.
type PriceSeries []PriceRow

// Cadence is how often the portfolio is reset to its target weights.
type Cadence string

const (
	Daily   Cadence = "daily"
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
)

// Cadences lists every supported cadence in display order.
var Cadences = []Cadence{Daily, Weekly, Monthly}

// ParseCadence accepts the cadence name case-insensitively, plus d/w/m.
func ParseCadence(s string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "d":
		return Daily, nil
	case "weekly", "w":
		return Weekly, nil
	case "monthly", "m":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q (want daily, weekly or monthly)", ErrUnknownCadence, s)
}

// Point is a single dated value of the equity or drawdown curve.
type Point struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// Metrics are the headline risk/return statistics of one run. All ratios are
// fractions (-0.2 is a 20% drawdown).
type Metrics struct {
	TotalReturn        float64 `json:"totalReturn"`
	MaxDrawdown        float64 `json:"maxDrawdown"`
	TimeToRecoveryDays *int    `json:"timeToRecoveryDays"` // nil if never recovered
	AnnVol             float64 `json:"annVol"`
	Sharpe             float64 `json:"sharpe"`
	AnnReturn          float64 `json:"annReturn"`
}

// SimulationResult is the output of Simulate.
type SimulationResult struct {
	Equity   []Point            `json:"equity"`
	Drawdown []Point            `json:"drawdown"`
	Metrics  Metrics            `json:"metrics"`
	Weights  map[string]float64 `json:"weights"` // normalized
}

// Dates returns the aligned timeline the result was computed on.
func (r *SimulationResult) Dates() []Date {
	out := make([]Date, len(r.Equity))
	for i, p := range r.Equity {
		out[i] = p.Date
	}
	return out
}

// Values returns the equity values in timeline order.
func (r *SimulationResult) Values() []float64 {
	out := make([]float64, len(r.Equity))
	for i, p := range r.Equity {
		out[i] = p.Value
	}
	return out
}
