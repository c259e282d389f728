// Package crisis holds the historical stress windows a basket can be replayed
// through, with a short brief for each.
package crisis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"crisisReplay/internal/finance"
)

// DefaultRecoveryMonths is how long a replay keeps running after the crisis ends.
const DefaultRecoveryMonths = 24

// RecoveryChoices are the recovery windows offered in menus.
var RecoveryChoices = []int{12, 18, 24, 36}

// DefaultTickers is the basket used when none is given: broad equity, small
// caps, developed and emerging ex-US, long and intermediate Treasuries, gold.
var DefaultTickers = []string{"SPY", "QQQ", "IWM", "EFA", "EEM", "TLT", "IEF", "GLD"}

type KeyDate struct {
	Date  finance.Date `json:"date" yaml:"date"`
	Label string       `json:"label" yaml:"label"`
}

type NewsItem struct {
	Title  string       `json:"title" yaml:"title"`
	Source string       `json:"source" yaml:"source"`
	Date   finance.Date `json:"date" yaml:"date"`
	URL    string       `json:"url" yaml:"url"`
}

// Brief is the narrative shown next to a replay.
type Brief struct {
	Title      string     `json:"title" yaml:"title"`
	Summary    string     `json:"summary" yaml:"summary"`
	Drivers    []string   `json:"drivers" yaml:"drivers"`
	KeyDates   []KeyDate  `json:"keyDates" yaml:"keyDates"`
	WhatWorked []string   `json:"whatWorked" yaml:"whatWorked"`
	News       []NewsItem `json:"news" yaml:"news"`
}

// Crisis is one named stress window.
type Crisis struct {
	Key     string       `json:"key" yaml:"key"`
	Name    string       `json:"name" yaml:"name"`   // "COVID Crash (2020-02 to 2020-04)"
	Label   string       `json:"label" yaml:"label"` // "COVID-19 Market Crash"
	Aliases []string     `json:"aliases,omitempty" yaml:"aliases"`
	Start   finance.Date `json:"start" yaml:"start"`
	End     finance.Date `json:"end" yaml:"end"`
	Brief   *Brief       `json:"brief,omitempty" yaml:"brief"`
}

// FetchWindow is the price window of a replay: the crisis itself plus the
// recovery months after it.
func (c Crisis) FetchWindow(recoveryMonths int) (finance.Date, finance.Date) {
	if recoveryMonths < 0 {
		recoveryMonths = DefaultRecoveryMonths
	}
	return c.Start, c.End.AddMonths(recoveryMonths)
}

// Catalog is an ordered set of crises with lookup by key, alias, name or
// 1-based position.
type Catalog struct {
	crises []Crisis
}

// NewCatalog validates and indexes crises in the given order.
func NewCatalog(crises ...Crisis) (*Catalog, error) {
	c := &Catalog{}
	for _, cr := range crises {
		if err := c.Add(cr); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a crisis. Keys and aliases must be unique across the catalog.
func (c *Catalog) Add(cr Crisis) error {
	cr.Key = strings.ToLower(strings.TrimSpace(cr.Key))
	if cr.Key == "" {
		return fmt.Errorf("crisis key is required")
	}
	if cr.Start.IsZero() || cr.End.IsZero() || !cr.Start.Before(cr.End) {
		return fmt.Errorf("crisis %s: start %s must be before end %s", cr.Key, cr.Start, cr.End)
	}
	if cr.Name == "" {
		cr.Name = fmt.Sprintf("%s (%s to %s)", cr.Key, cr.Start.Time().Format("2006-01"), cr.End.Time().Format("2006-01"))
	}
	if cr.Label == "" {
		cr.Label = cr.Name
	}
	for _, name := range append([]string{cr.Key}, cr.Aliases...) {
		if _, ok := c.Lookup(name); ok {
			return fmt.Errorf("crisis %s: %q is already taken", cr.Key, name)
		}
	}
	c.crises = append(c.crises, cr)
	return nil
}

// All returns the crises in catalog order.
func (c *Catalog) All() []Crisis {
	return append([]Crisis(nil), c.crises...)
}

// Lookup resolves a key, alias, full name or label ignoring case, then a
// 1-based position in the catalog.
func (c *Catalog) Lookup(q string) (Crisis, bool) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return Crisis{}, false
	}
	for _, cr := range c.crises {
		if cr.Key == q || strings.ToLower(cr.Name) == q || strings.ToLower(cr.Label) == q {
			return cr, true
		}
		for _, a := range cr.Aliases {
			if strings.ToLower(a) == q {
				return cr, true
			}
		}
	}
	if i, err := strconv.Atoi(q); err == nil && i >= 1 && i <= len(c.crises) {
		return c.crises[i-1], true
	}
	return Crisis{}, false
}

// Keys returns every crisis key, sorted.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.crises))
	for _, cr := range c.crises {
		out = append(out, cr.Key)
	}
	sort.Strings(out)
	return out
}

// commonTSX are TSX listings that share a bare ticker with a US symbol or are
// usually typed without the exchange suffix.
var commonTSX = map[string]bool{
	"TD": true, "RY": true, "BNS": true, "BMO": true, "CM": true,
	"ENB": true, "TRP": true, "TC": true, "PPL": true, "CNQ": true, "SU": true,
	"CNR": true, "CP": true, "CPKC": true,
	"BCE": true, "T": true, "RCI": true,
	"SHOP": true, "ATD": true, "L": true, "WCN": true, "FTS": true, "EMA": true,
}

// WithCanadaSuffix appends ".TO" to common TSX tickers that have no suffix yet.
func WithCanadaSuffix(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" || strings.Contains(t, ".") {
		return t
	}
	if commonTSX[t] {
		return t + ".TO"
	}
	return t
}
