package finance

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// MakeIndexedChart renders each ticker's closes indexed to 100 on the first
// date all tickers share, so constituents of a basket can be compared.
func MakeIndexedChart(title string, prices map[string]PriceSeries, tickers []string) ([]byte, error) {
	if len(tickers) == 0 {
		return nil, errors.New("no symbols provided")
	}
	names := append([]string(nil), tickers...)
	sort.Strings(names)

	cacheKey := "indexed-" + title + "-" + strings.Join(names, ",")
	for _, t := range names {
		s := prices[t]
		if len(s) > 0 {
			cacheKey += fmt.Sprintf("|%s:%d:%s", t, len(s), s[len(s)-1].Date)
		}
	}
	if img, ok := cacheGet(cacheKey); ok {
		return img, nil
	}

	aligned, err := alignSeries(prices, names)
	if err != nil {
		return nil, err
	}

	values := make([][]float64, 0, len(names))
	var all []float64
	for _, t := range names {
		base := aligned.prices[aligned.dates[0]][t]
		out := make([]float64, len(aligned.dates))
		for i, d := range aligned.dates {
			out[i] = aligned.prices[d][t] / base * 100
		}
		values = append(values, out)
		all = append(all, out...)
	}
	yMin, yMax := paddedRange(all)

	buf, err := renderMulti(title, strings.Join(names, ", ")+" • base 100", dateLabels(aligned.dates), names, values, yMin, yMax)
	if err != nil {
		return nil, err
	}
	cacheSet(cacheKey, buf)
	return buf, nil
}

// MakeComparisonChart overlays several equity curves computed over the same
// timeline, e.g. one basket under each rebalance cadence.
func MakeComparisonChart(title string, curves map[string]*SimulationResult) ([]byte, error) {
	if len(curves) == 0 {
		return nil, errors.New("no curves provided")
	}
	names := make([]string, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Strings(names)

	ref := curves[names[0]]
	values := make([][]float64, 0, len(names))
	var all []float64
	for _, n := range names {
		c := curves[n]
		if len(c.Equity) != len(ref.Equity) {
			return nil, fmt.Errorf("curve %s has %d points, expected %d", n, len(c.Equity), len(ref.Equity))
		}
		v := c.Values()
		values = append(values, v)
		all = append(all, v...)
	}
	if len(all) == 0 {
		return nil, errors.New("no equity data")
	}
	yMin, yMax := paddedRange(all)
	return renderMulti(title, strings.Join(names, " vs "), dateLabels(ref.Dates()), names, values, yMin, yMax)
}

func renderMulti(title, subtitle string, xLabels, names []string, values [][]float64, yMin, yMax float64) ([]byte, error) {
	split := 12
	if len(xLabels) <= 30 {
		split = 6
	}
	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
		seriesList[i].AxisIndex = 0
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionBottom}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return painter.Bytes()
}
