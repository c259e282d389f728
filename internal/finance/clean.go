package finance

import (
	"math"
	"slices"
)

// cleanSeries drops rows with a non-positive or non-finite close, sorts by
// date and keeps the last row when a date repeats.
// No outlier filtering: crash days are real data.
func cleanSeries(in PriceSeries) PriceSeries {
	out := make(PriceSeries, 0, len(in))
	for _, r := range in {
		if r.Close <= 0 || math.IsNaN(r.Close) || math.IsInf(r.Close, 0) || r.Date.IsZero() {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b PriceRow) int { return a.Date.Compare(b.Date) })

	dedup := out[:0]
	for i, r := range out {
		if i+1 < len(out) && out[i+1].Date == r.Date {
			continue
		}
		dedup = append(dedup, r)
	}
	return dedup
}

// clip keeps the rows with start <= date <= end.
func clip(in PriceSeries, start, end Date) PriceSeries {
	out := make(PriceSeries, 0, len(in))
	for _, r := range in {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}
