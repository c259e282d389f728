package finance

import (
	"math"
	"sort"
)

// NormalizeWeights drops non-finite and non-positive weights and scales the
// rest to sum to 1. It returns an empty map when nothing positive is left.
func NormalizeWeights(raw map[string]float64) map[string]float64 {
	out := map[string]float64{}
	keys := make([]string, 0, len(raw))
	for k, w := range raw {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			continue
		}
		keys = append(keys, k)
	}
	// fixed order so the float sum does not depend on map iteration
	sort.Strings(keys)

	sum := 0.0
	for _, k := range keys {
		sum += raw[k]
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return out
	}
	for _, k := range keys {
		out[k] = raw[k] / sum
	}
	return out
}

// sortedTickers returns the keys of w in ascending order.
func sortedTickers(w map[string]float64) []string {
	out := make([]string, 0, len(w))
	for k := range w {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
