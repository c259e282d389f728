package finance

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG")

func chartFixture(t *testing.T) (map[string]PriceSeries, *SimulationResult) {
	prices := map[string]PriceSeries{
		"SPY": series("2020-02-03", 300, 290, 250, 270, 310, 305, 280, 320),
		"TLT": series("2020-02-03", 140, 142, 150, 149, 145, 146, 147, 139),
	}
	res, err := Simulate(prices, map[string]float64{"SPY": 1, "TLT": 1}, Weekly)
	require.NoError(t, err)
	return prices, res
}

func TestMakeEquityAndDrawdownCharts(t *testing.T) {
	_, res := chartFixture(t)

	img, err := MakeEquityChart("COVID-19 Market Crash", res)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	again, err := MakeEquityChart("COVID-19 Market Crash", res)
	require.NoError(t, err)
	assert.Equal(t, img, again)

	dd, err := MakeDrawdownChart("COVID-19 Market Crash", res)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(dd, pngMagic))

	_, err = MakeEquityChart("empty", &SimulationResult{})
	assert.Error(t, err)
}

func TestMakeIndexedAndComparisonCharts(t *testing.T) {
	prices, res := chartFixture(t)

	img, err := MakeIndexedChart("Constituents", prices, []string{"TLT", "SPY"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	daily, err := Simulate(prices, map[string]float64{"SPY": 1, "TLT": 1}, Daily)
	require.NoError(t, err)
	cmp, err := MakeComparisonChart("Cadences", map[string]*SimulationResult{"weekly": res, "daily": daily})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(cmp, pngMagic))

	_, err = MakeIndexedChart("none", prices, nil)
	assert.Error(t, err)
}

func TestRunsChartAndText(t *testing.T) {
	counts := map[string]int{"COVID Crash": 3, "2008 GFC": 1, "Rate Shock": 3}
	img, err := MakeRunsChart(counts, 30)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	assert.Equal(t, []string{"COVID Crash", "Rate Shock", "2008 GFC"}, sortedByCount(counts))
	text := FormatRunCountsText(counts, 30)
	assert.Contains(t, text, "*Total replays*: 7")
	assert.Contains(t, text, "• 2008 GFC: 1 (14.3%)")

	_, err = MakeRunsChart(nil, 30)
	assert.Error(t, err)
	assert.Equal(t, "No replays in the specified period.", FormatRunCountsText(nil, 7))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-20.00%", FormatPct(-0.2))
	assert.Equal(t, "12.34%", FormatPct(0.1234))
	assert.Equal(t, "Not recovered", FormatRecovery(nil))
	assert.Equal(t, "4 days", FormatRecovery(intPtr(4)))
	assert.Equal(t, []string{"Feb 03", "Feb 04"}, dateLabels(dates("2020-02-03", "2020-02-04")))
}
