package finance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 13:30 UTC session opens for 2020-03-20, 2020-03-23, 2020-03-24
const chartBody = `{"chart":{"result":[{"meta":{"symbol":"SPY","gmtoffset":-14400,"exchangeTimezoneName":"America/New_York"},
"timestamp":[1584711000,1584970200,1585056600],
"indicators":{"quote":[{"close":[228.8,null,243.15]}],"adjclose":[{"adjclose":[210.1,205.5,223.2]}]}}],"error":null}}`

func newTestYahoo(urls ...string) *YahooSource {
	y := NewYahooSource(zap.NewNop())
	y.Hosts = urls
	y.Backoffs = []time.Duration{time.Millisecond}
	return y
}

func TestYahooDailyCloses(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	y := newTestYahoo(srv.URL)
	rows, err := y.DailyCloses(context.Background(), "spy", MustParseDate("2020-03-01"), MustParseDate("2020-03-31"))
	require.NoError(t, err)

	// null close is dropped
	assert.Equal(t, PriceSeries{
		{Date: MustParseDate("2020-03-20"), Close: 228.8},
		{Date: MustParseDate("2020-03-24"), Close: 243.15},
	}, rows)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "period1=1583020800")

	y.Adjusted = true
	rows, err = y.DailyCloses(context.Background(), "SPY", MustParseDate("2020-03-21"), MustParseDate("2020-03-31"))
	require.NoError(t, err)
	assert.Equal(t, PriceSeries{
		{Date: MustParseDate("2020-03-23"), Close: 205.5},
		{Date: MustParseDate("2020-03-24"), Close: 223.2},
	}, rows)
}

func TestYahooRetriesNextHost(t *testing.T) {
	var limited int32
	busy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&limited, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "Edge: Too Many Requests")
	}))
	defer busy.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))
	defer ok.Close()

	rows, err := newTestYahoo(busy.URL, ok.URL).DailyCloses(context.Background(), "SPY", MustParseDate("2020-03-01"), MustParseDate("2020-03-31"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&limited))
}

func TestYahooFallsBackToSpark(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/") {
			fmt.Fprint(w, "<html>blocked</html>")
			return
		}
		assert.Equal(t, "SPY", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"spark":{"result":[{"symbol":"SPY","response":[{"timestamp":[1584711000,1585056600],"close":[228.8,243.15]}]}]}}`)
	}))
	defer srv.Close()

	rows, err := newTestYahoo(srv.URL).DailyCloses(context.Background(), "SPY", MustParseDate("2020-03-01"), MustParseDate("2020-03-31"))
	require.NoError(t, err)
	assert.Equal(t, []Date{MustParseDate("2020-03-20"), MustParseDate("2020-03-24")}, []Date{rows[0].Date, rows[1].Date})
}

func TestYahooGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestYahoo(srv.URL).DailyCloses(context.Background(), "SPY", MustParseDate("2020-03-01"), MustParseDate("2020-03-31"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 500")
	// two rounds for chart, two for spark
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestYahooHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	y := newTestYahoo(srv.URL)
	y.Backoffs = []time.Duration{time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := y.DailyCloses(ctx, "SPY", MustParseDate("2020-03-01"), MustParseDate("2020-03-31"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExchangeLocation(t *testing.T) {
	assert.Equal(t, "America/Toronto", exchangeLocation("America/Toronto", 0).String())
	_, off := time.Date(2020, 1, 1, 0, 0, 0, 0, exchangeLocation("", 3600)).Zone()
	assert.Equal(t, 3600, off)
	assert.NotNil(t, exchangeLocation("Not/AZone", 0))
}

func TestCleanSeries(t *testing.T) {
	in := PriceSeries{
		{Date: MustParseDate("2020-01-03"), Close: 3},
		{Date: MustParseDate("2020-01-01"), Close: 1},
		{Date: MustParseDate("2020-01-02"), Close: 0},
		{Date: MustParseDate("2020-01-03"), Close: 3.5},
		{Close: 9},
	}
	assert.Equal(t, PriceSeries{
		{Date: MustParseDate("2020-01-01"), Close: 1},
		{Date: MustParseDate("2020-01-03"), Close: 3.5},
	}, cleanSeries(in))
}
