package finance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateParseAndFormat(t *testing.T) {
	d, err := ParseDate("2020-2-1")
	require.NoError(t, err)
	assert.Equal(t, "2020-02-01", d.String())
	assert.Equal(t, NewDate(2020, time.February, 1), d)

	_, err = ParseDate("01/02/2020")
	assert.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2009-03-31")
	assert.Equal(t, "2009-04-30", d.AddMonths(1).String())
	assert.Equal(t, "2011-03-31", d.AddMonths(24).String())
	assert.Equal(t, "2020-02-29", MustParseDate("2020-01-31").AddMonths(1).String())
	assert.Equal(t, "2021-01-01", MustParseDate("2020-12-31").AddDays(1).String())
	assert.Equal(t, 366.0, MustParseDate("2021-01-01").DaysSince(MustParseDate("2020-01-01")))
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(Point{Date: MustParseDate("2022-10-31"), Value: 1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2022-10-31","value":1.5}`, string(b))

	var p PriceRow
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2020-03-23","close":222.95}`), &p))
	assert.Equal(t, MustParseDate("2020-03-23"), p.Date)
	assert.Equal(t, 222.95, p.Close)
}

func TestDateOfKeepsLocalDay(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	ts := time.Date(2020, 3, 23, 16, 0, 0, 0, ny) // 21:00 UTC
	assert.Equal(t, "2020-03-23", DateOf(ts).String())
	assert.Equal(t, "2020-03-24", DateOf(time.Date(2020, 3, 23, 23, 0, 0, 0, ny).UTC()).String())
}
