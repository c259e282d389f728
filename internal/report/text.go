package report

import (
	"fmt"
	"strings"

	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
)

// Caption is the short plain-text summary sent with chart images.
func Caption(o *replay.Outcome) string {
	m := o.Result.Metrics
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", o.Title())
	fmt.Fprintf(&b, "%s → %s\n", o.Start, o.End)
	fmt.Fprintf(&b, "Total return: %s\n", finance.FormatPct(m.TotalReturn))
	fmt.Fprintf(&b, "Max drawdown: %s\n", finance.FormatPct(m.MaxDrawdown))
	fmt.Fprintf(&b, "Recovery: %s\n", finance.FormatRecovery(m.TimeToRecoveryDays))
	fmt.Fprintf(&b, "Ann. vol: %s • Sharpe: %.2f\n", finance.FormatPct(m.AnnVol), m.Sharpe)

	parts := make([]string, 0, len(o.Tickers))
	for _, t := range o.Tickers {
		if w, ok := o.Result.Weights[t]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", t, finance.FormatPct(w)))
		}
	}
	fmt.Fprintf(&b, "Weights: %s", strings.Join(parts, ", "))
	if warn := o.Warning(); warn != "" {
		fmt.Fprintf(&b, "\n⚠️ %s", warn)
	}
	return b.String()
}
