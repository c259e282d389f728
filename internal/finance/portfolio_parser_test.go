package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplayCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *ReplayCommand
	}{
		{
			name:  "weights and cadence",
			input: "/replay covid SPY 60 tlt 40% weekly",
			want: &ReplayCommand{
				Crisis:         "covid",
				Tickers:        []string{"SPY", "TLT"},
				Weights:        map[string]float64{"SPY": 60, "TLT": 40},
				Cadence:        Weekly,
				RecoveryMonths: -1,
			},
		},
		{
			name:  "default weight of one",
			input: "/replay@CrisisBot gfc SPY GLD 2 IEF",
			want: &ReplayCommand{
				Crisis:         "gfc",
				Tickers:        []string{"SPY", "GLD", "IEF"},
				Weights:        map[string]float64{"SPY": 1, "GLD": 2, "IEF": 1},
				Cadence:        Monthly,
				RecoveryMonths: -1,
			},
		},
		{
			name:  "options",
			input: "2 TD RY recovery=18m ca cadence=daily",
			want: &ReplayCommand{
				Crisis:         "2",
				Tickers:        []string{"TD", "RY"},
				Weights:        map[string]float64{"TD": 1, "RY": 1},
				Cadence:        Daily,
				RecoveryMonths: 18,
				Canada:         true,
			},
		},
		{
			name:  "crisis only",
			input: "/replay rates",
			want: &ReplayCommand{
				Crisis:         "rates",
				Weights:        map[string]float64{},
				Cadence:        Monthly,
				RecoveryMonths: -1,
			},
		},
		{
			name:  "zero weight kept for normalizer",
			input: "/replay covid SPY 0 TLT 0.25",
			want: &ReplayCommand{
				Crisis:         "covid",
				Tickers:        []string{"SPY", "TLT"},
				Weights:        map[string]float64{"SPY": 0, "TLT": 0.25},
				Cadence:        Monthly,
				RecoveryMonths: -1,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReplayCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReplayCommandErrors(t *testing.T) {
	tests := map[string]string{
		"/replay":                       "usage",
		"/replay covid 50 SPY":          "must follow a ticker",
		"/replay covid SPY 1 SPY 2":     "duplicate symbol: SPY",
		"/replay covid SPY -1":          "short positions",
		"/replay covid SPY 1.2.3":       "invalid weight",
		"/replay covid SPY 0 TLT 0":     "set at least one weight > 0",
		"/replay covid SPY recovery=3w": "invalid recovery window",
		"/replay covid SPY cadence=yr":  "unknown rebalance cadence",
	}
	for input, msg := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseReplayCommand(input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), msg)
		})
	}
}

func TestCanonicalWeights(t *testing.T) {
	w := NormalizeWeights(map[string]float64{"TLT": 1, "SPY": 2})
	assert.Equal(t, "SPY=0.666667,TLT=0.333333", CanonicalWeights(w))
}
