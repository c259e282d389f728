package finance

import (
	"fmt"
	"math"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// MakeEquityChart renders the equity curve of a replay as a PNG with the
// headline metrics in the subtitle.
func MakeEquityChart(title string, res *SimulationResult) ([]byte, error) {
	if res == nil || len(res.Equity) == 0 {
		return nil, fmt.Errorf("no equity data")
	}

	cacheKey := fmt.Sprintf("equity-%s-%s", title, resultKey(res))
	if img, found := cacheGet(cacheKey); found {
		return img, nil
	}

	values := res.Values()
	yMin, yMax := paddedRange(values)
	m := res.Metrics
	subtitle := fmt.Sprintf("Return: %s | MaxDD: %s | Recovery: %s | Vol: %s | Sharpe: %.2f",
		FormatPct(m.TotalReturn), FormatPct(m.MaxDrawdown), FormatRecovery(m.TimeToRecoveryDays), FormatPct(m.AnnVol), m.Sharpe)

	buf, err := renderLine(title+"\n"+subtitle, dateLabels(res.Dates()), values, yMin, yMax)
	if err != nil {
		return nil, err
	}
	cacheSet(cacheKey, buf)
	return buf, nil
}

// MakeDrawdownChart renders the drawdown curve in percent.
func MakeDrawdownChart(title string, res *SimulationResult) ([]byte, error) {
	if res == nil || len(res.Drawdown) == 0 {
		return nil, fmt.Errorf("no drawdown data")
	}

	cacheKey := fmt.Sprintf("drawdown-%s-%s", title, resultKey(res))
	if img, found := cacheGet(cacheKey); found {
		return img, nil
	}

	values := make([]float64, len(res.Drawdown))
	for i, p := range res.Drawdown {
		values[i] = p.Value * 100
	}
	yMin := math.Floor(res.Metrics.MaxDrawdown*100) - 1
	yMax := 0.0

	subtitle := fmt.Sprintf("Max Drawdown: %s | Time to Recovery: %s",
		FormatPct(res.Metrics.MaxDrawdown), FormatRecovery(res.Metrics.TimeToRecoveryDays))
	buf, err := renderLine(title+"\n"+subtitle, dateLabels(res.Dates()), values, yMin, yMax)
	if err != nil {
		return nil, err
	}
	cacheSet(cacheKey, buf)
	return buf, nil
}

func renderLine(title string, xLabels []string, values []float64, yMin, yMax float64) ([]byte, error) {
	// Determine split number for x-axis based on data points
	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// dateLabels formats x-axis labels; long windows only show month and year.
func dateLabels(dates []Date) []string {
	layout := "Jan 02"
	if len(dates) > 60 {
		layout = "Jan '06"
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Time().Format(layout)
	}
	return out
}

// paddedRange returns min/max widened by 5% so the line does not touch the frame.
func paddedRange(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, val := range values {
		if val < minVal {
			minVal = val
		}
		if val > maxVal {
			maxVal = val
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = math.Abs(maxVal) * 0.05
	}
	if padding == 0 {
		padding = 1
	}
	return minVal - padding, maxVal + padding
}

func resultKey(res *SimulationResult) string {
	first, last := res.Equity[0], res.Equity[len(res.Equity)-1]
	return strings.Join([]string{
		CanonicalWeights(res.Weights),
		first.Date.String(), last.Date.String(),
		fmt.Sprint(len(res.Equity)), fmt.Sprintf("%.6f", last.Value),
	}, "|")
}

// FormatPct renders a fraction as a percentage with two decimals.
func FormatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatRecovery renders a recovery duration, or "Not recovered".
func FormatRecovery(days *int) string {
	if days == nil {
		return "Not recovered"
	}
	return fmt.Sprintf("%d days", *days)
}
