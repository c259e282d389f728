package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	defaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}
	defaultBackoffs   = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
)

// errRetry marks a response worth trying again on another host.
var errRetry = errors.New("retriable yahoo response")

// YahooSource reads daily closes from the Yahoo Finance chart API, falling
// back to the spark endpoint when the chart endpoint keeps failing.
type YahooSource struct {
	// Adjusted selects split/dividend adjusted closes when Yahoo provides them.
	Adjusted bool
	Hosts    []string
	Backoffs []time.Duration
	Client   *http.Client
	logger   *zap.Logger
}

func NewYahooSource(logger *zap.Logger) *YahooSource {
	return &YahooSource{
		Hosts:    defaultYahooHosts,
		Backoffs: defaultBackoffs,
		Client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

// DailyCloses returns closes with start <= date <= end.
func (y *YahooSource) DailyCloses(ctx context.Context, ticker string, start, end Date) (PriceSeries, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Time().Unix()))
	q.Set("period2", fmt.Sprint(end.AddDays(1).Time().Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")

	var yc yahooChartResp
	err := y.retry(ctx, func(host string) error {
		body, err := y.get(ctx, host+"/v8/finance/chart/"+url.PathEscape(symbol)+"?"+q.Encode(), symbol)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &yc); err != nil {
			return errors.Wrapf(errRetry, "failed to parse yahoo json: %v; body: %s", err, preview(body))
		}
		return nil
	})
	if err == nil {
		return y.chartSeries(&yc, start, end)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	y.logger.Warn("yahoo: chart failed, trying spark", zap.String("ticker", symbol), zap.Error(err))

	var sp yahooSparkResp
	sq := url.Values{}
	sq.Set("symbols", symbol)
	sq.Set("range", sparkRange(start))
	sq.Set("interval", "1d")
	err = y.retry(ctx, func(host string) error {
		body, err := y.get(ctx, host+"/v7/finance/spark?"+sq.Encode(), symbol)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &sp); err != nil {
			return errors.Wrapf(errRetry, "failed to parse yahoo spark json: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo %s", symbol)
	}
	if len(sp.Spark.Result) == 0 || len(sp.Spark.Result[0].Response) == 0 {
		return nil, errors.Errorf("yahoo %s: no data", symbol)
	}
	r := sp.Spark.Result[0].Response[0]
	return toSeries(r.Timestamp, r.Close, getEasternTime(), start, end), nil
}

func (y *YahooSource) chartSeries(yc *yahooChartResp, start, end Date) (PriceSeries, error) {
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("no data")
	}
	res := yc.Chart.Result[0]
	return toSeries(res.Timestamp, res.closes(y.Adjusted), exchangeLocation(res.Meta.Timezone, res.Meta.GmtOffset), start, end), nil
}

// retry runs fn against every host, backing off between rounds, until one
// succeeds or a non-retriable error comes back.
func (y *YahooSource) retry(ctx context.Context, fn func(host string) error) error {
	var lastErr error
	for attempt := 0; attempt < len(y.Backoffs)+1; attempt++ {
		for _, host := range y.Hosts {
			lastErr = fn(host)
			if lastErr == nil {
				return nil
			}
			if !errors.Is(lastErr, errRetry) {
				return lastErr
			}
		}
		if attempt < len(y.Backoffs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(y.Backoffs[attempt]):
			}
		}
	}
	return lastErr
}

func (y *YahooSource) get(ctx context.Context, rawURL, symbol string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build yahoo request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", symbol))

	resp, err := y.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errRetry, err.Error())
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errRetry, "failed to read yahoo response: %v", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, errors.Wrapf(errRetry, "yahoo %s returned 429: Edge: Too Many Requests", req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errRetry, "yahoo %s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, errors.Wrapf(errRetry, "yahoo returned non-json body: %s", preview(body))
	}
	return body, nil
}

// toSeries converts unix timestamps to exchange-local calendar days and keeps
// the rows inside [start, end].
func toSeries(ts []int64, closes []float64, loc *time.Location, start, end Date) PriceSeries {
	n := min(len(ts), len(closes))
	out := make(PriceSeries, 0, n)
	for i := 0; i < n; i++ {
		d := DateOf(time.Unix(ts[i], 0).In(loc))
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, PriceRow{Date: d, Close: closes[i]})
	}
	return cleanSeries(out)
}

// sparkRange picks the smallest spark range that still reaches back to start.
func sparkRange(start Date) string {
	years := time.Since(start.Time()).Hours() / 24 / DaysPerYear
	switch {
	case years <= 1:
		return "1y"
	case years <= 5:
		return "5y"
	case years <= 10:
		return "10y"
	}
	return "max"
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
