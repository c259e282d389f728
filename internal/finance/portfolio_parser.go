package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReplayCommand is a parsed replay request from chat or the command line.
type ReplayCommand struct {
	Crisis         string
	Tickers        []string // in the order given
	Weights        map[string]float64
	Cadence        Cadence
	RecoveryMonths int  // -1 when not given
	Canada         bool // append .TO to common TSX tickers
}

// ParseReplayCommand parses
//
//	/replay <crisis> SPY 60 TLT 40 [daily|weekly|monthly] [recovery=24m] [ca]
//
// A number after a ticker is its weight (a trailing % is allowed); a ticker
// without one weighs 1. With no tickers at all the caller picks a default basket.
func ParseReplayCommand(input string) (*ReplayCommand, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		if i := strings.IndexFunc(input, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }); i >= 0 {
			input = input[i:]
		} else {
			input = ""
		}
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("usage: /replay <crisis> [TICKER [weight]]... [daily|weekly|monthly] [recovery=24m] [ca]")
	}

	cmd := &ReplayCommand{
		Crisis:         parts[0],
		Weights:        map[string]float64{},
		Cadence:        Monthly,
		RecoveryMonths: -1,
	}

	var last string
	for _, p := range parts[1:] {
		lower := strings.ToLower(p)
		switch {
		case lower == "daily" || lower == "weekly" || lower == "monthly":
			cmd.Cadence = Cadence(lower)
			last = ""
			continue
		case lower == "ca" || lower == "canada":
			cmd.Canada = true
			last = ""
			continue
		case strings.HasPrefix(lower, "cadence="):
			c, err := ParseCadence(strings.TrimPrefix(lower, "cadence="))
			if err != nil {
				return nil, err
			}
			cmd.Cadence = c
			last = ""
			continue
		case strings.HasPrefix(lower, "recovery="):
			m, err := ParseRecoveryWindow(strings.TrimPrefix(lower, "recovery="))
			if err != nil {
				return nil, err
			}
			cmd.RecoveryMonths = m
			last = ""
			continue
		}

		if w, ok, err := parseWeight(p); ok {
			if err != nil {
				return nil, err
			}
			if last == "" {
				return nil, fmt.Errorf("weight %s must follow a ticker", p)
			}
			cmd.Weights[last] = w
			last = ""
			continue
		}

		symbol := strings.ToUpper(p)
		if _, dup := cmd.Weights[symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol: %s", symbol)
		}
		cmd.Tickers = append(cmd.Tickers, symbol)
		cmd.Weights[symbol] = 1
		last = symbol
	}

	if len(cmd.Tickers) > 0 && len(NormalizeWeights(cmd.Weights)) == 0 {
		return nil, ErrNoPositiveWeight
	}
	return cmd, nil
}

// parseWeight reports ok when s looks like a number. Weights are parsed as
// decimals so "0.1 0.2 0.7" normalizes without binary drift in the input.
func parseWeight(s string) (float64, bool, error) {
	raw := strings.TrimSuffix(s, "%")
	if raw == "" || !(raw[0] == '-' || raw[0] == '+' || raw[0] == '.' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, true, fmt.Errorf("invalid weight '%s': %w", s, err)
	}
	if d.IsNegative() {
		return 0, true, fmt.Errorf("negative weight %s: short positions are not supported", s)
	}
	return d.InexactFloat64(), true, nil
}

// CanonicalWeights renders weights as a stable "SPY=0.6,TLT=0.4" string for
// cache keys and run history.
func CanonicalWeights(w map[string]float64) string {
	parts := make([]string, 0, len(w))
	for _, t := range sortedTickers(w) {
		parts = append(parts, t+"="+decimal.NewFromFloat(w[t]).Round(6).String())
	}
	return strings.Join(parts, ",")
}
