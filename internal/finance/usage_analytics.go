package finance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// MakeRunsChart creates a pie chart of how often each crisis was replayed.
func MakeRunsChart(counts map[string]int, days int) ([]byte, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("no replay history available")
	}

	names := sortedByCount(counts)
	total := 0
	for _, n := range names {
		total += counts[n]
	}

	values := make([]float64, 0, len(names))
	labels := make([]string, 0, len(names))
	for _, n := range names {
		values = append(values, float64(counts[n]))
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", n, float64(counts[n])/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Crisis replays (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatRunCountsText summarizes replay history as chat markdown.
func FormatRunCountsText(counts map[string]int, days int) string {
	if len(counts) == 0 {
		return "No replays in the specified period."
	}
	names := sortedByCount(counts)
	total := 0
	for _, n := range names {
		total += counts[n]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Replay history* (%d days)\n\n", days)
	fmt.Fprintf(&b, "*Total replays*: %d\n\n", total)
	for _, n := range names {
		fmt.Fprintf(&b, "• %s: %d (%.1f%%)\n", n, counts[n], float64(counts[n])/float64(total)*100)
	}
	return b.String()
}

// sortedByCount orders by count descending, then name.
func sortedByCount(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
