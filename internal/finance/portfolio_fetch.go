package finance

import (
	"context"
	"fmt"
	"strings"
)

// MinCrisisPoints is the least history a ticker needs inside a crisis window
// to take part in a replay.
const MinCrisisPoints = 5

// Basket is the price history of a set of tickers over one window.
type Basket struct {
	Prices  map[string]PriceSeries
	Usable  []string // tickers with enough history, in request order
	Dropped []string // tickers without enough history, in request order
	Errors  map[string]error
}

// Warning explains which tickers were dropped, or is empty.
func (b *Basket) Warning() string {
	if len(b.Dropped) == 0 {
		return ""
	}
	return fmt.Sprintf("Dropped %s (no history in this crisis window)", strings.Join(b.Dropped, ", "))
}

// LoadBasket fetches every ticker from src. A failed fetch is not fatal: the
// ticker gets an empty series and is dropped together with tickers that have
// fewer than minPoints rows. It fails only when nothing usable is left.
func LoadBasket(ctx context.Context, src PriceSource, tickers []string, start, end Date, minPoints int) (*Basket, error) {
	b := &Basket{
		Prices: make(map[string]PriceSeries, len(tickers)),
		Errors: map[string]error{},
	}
	seen := map[string]bool{}
	for _, raw := range tickers {
		t := strings.ToUpper(strings.TrimSpace(raw))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true

		rows, err := src.DailyCloses(ctx, t, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.Errors[t] = err
			rows = nil
		}
		b.Prices[t] = rows
		if len(rows) < minPoints {
			b.Dropped = append(b.Dropped, t)
			continue
		}
		b.Usable = append(b.Usable, t)
	}
	if len(b.Usable) == 0 {
		return b, fmt.Errorf("%w: %s to %s", ErrNoUsableTickers, start, end)
	}
	return b, nil
}

// ParseRecoveryWindow reads how long to keep replaying after a crisis ends:
// "24", "24m", "18mo" or "2y". The result is in months.
func ParseRecoveryWindow(window string) (int, error) {
	w := strings.ToLower(strings.TrimSpace(window))
	if w == "" {
		return 0, fmt.Errorf("empty recovery window")
	}

	mult := 1
	switch {
	case strings.HasSuffix(w, "mo"):
		w = strings.TrimSuffix(w, "mo")
	case strings.HasSuffix(w, "m"):
		w = strings.TrimSuffix(w, "m")
	case strings.HasSuffix(w, "y"):
		w = strings.TrimSuffix(w, "y")
		mult = 12
	}

	var n int
	if _, err := fmt.Sscanf(w, "%d", &n); err != nil || n < 0 || fmt.Sprint(n) != w {
		return 0, fmt.Errorf("invalid recovery window: %s (use format like 12, 18m, 2y)", window)
	}
	if n*mult > 120 {
		return 0, fmt.Errorf("recovery window too long: %s (max 10y)", window)
	}
	return n * mult, nil
}
