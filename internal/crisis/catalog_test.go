package crisis

import (
	"testing"

	"crisisReplay/internal/finance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLookup(t *testing.T) {
	c := Default()
	require.Len(t, c.All(), 3)

	tests := map[string]string{
		"covid":                            "covid",
		"COVID":                            "covid",
		"2":                                "covid",
		"pandemic":                         "covid",
		"COVID Crash (2020-02 to 2020-04)": "covid",
		"2008 global financial crisis":     "gfc",
		"2008":                             "gfc",
		"1":                                "gfc",
		"3":                                "rates",
		" 2022 ":                           "rates",
	}
	for q, key := range tests {
		cr, ok := c.Lookup(q)
		require.True(t, ok, q)
		assert.Equal(t, key, cr.Key, q)
	}
	for _, q := range []string{"", "0", "4", "dotcom"} {
		_, ok := c.Lookup(q)
		assert.False(t, ok, q)
	}
	assert.Equal(t, []string{"covid", "gfc", "rates"}, c.Keys())
}

func TestBuiltinWindows(t *testing.T) {
	c := Default()
	gfc, _ := c.Lookup("gfc")
	assert.Equal(t, "2007-10-01", gfc.Start.String())
	assert.Equal(t, "2009-03-31", gfc.End.String())
	assert.Equal(t, "2008 Global Financial Crisis", gfc.Label)
	require.NotNil(t, gfc.Brief)
	assert.Len(t, gfc.Brief.KeyDates, 3)

	covid, _ := c.Lookup("covid")
	start, end := covid.FetchWindow(-1)
	assert.Equal(t, "2020-02-01", start.String())
	assert.Equal(t, "2022-04-30", end.String())

	_, end = gfc.FetchWindow(18)
	assert.Equal(t, "2010-09-30", end.String())

	rates, _ := c.Lookup("rates")
	_, end = rates.FetchWindow(0)
	assert.Equal(t, rates.End, end)
}

func TestCatalogAdd(t *testing.T) {
	c := Default()
	err := c.Add(Crisis{
		Key:     "DotCom",
		Aliases: []string{"2000"},
		Start:   finance.MustParseDate("2000-03-01"),
		End:     finance.MustParseDate("2002-10-31"),
	})
	require.NoError(t, err)
	cr, ok := c.Lookup("dotcom")
	require.True(t, ok)
	assert.Equal(t, "dotcom (2000-03 to 2002-10)", cr.Name)
	assert.Equal(t, cr.Name, cr.Label)
	cr, ok = c.Lookup("4")
	require.True(t, ok)
	assert.Equal(t, "dotcom", cr.Key)

	assert.ErrorContains(t, c.Add(Crisis{Key: "again", Aliases: []string{"covid"}, Start: cr.Start, End: cr.End}), "already taken")
	assert.ErrorContains(t, c.Add(Crisis{Key: "", Start: cr.Start, End: cr.End}), "key is required")
	assert.ErrorContains(t, c.Add(Crisis{Key: "backwards", Start: cr.End, End: cr.Start}), "must be before")
}

func TestWithCanadaSuffix(t *testing.T) {
	tests := map[string]string{
		"td":      "TD.TO",
		"RY":      "RY.TO",
		"T":       "T.TO",
		"SPY":     "SPY",
		"SHOP.TO": "SHOP.TO",
		"BRK.B":   "BRK.B",
		"":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, WithCanadaSuffix(in), in)
	}
}
