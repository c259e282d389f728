package finance

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultStooqURL = "https://stooq.com/q/d/l/"

// StooqSource reads the free Stooq daily CSV download
// (header Date,Open,High,Low,Close,Volume).
type StooqSource struct {
	BaseURL string
	Client  *http.Client
	logger  *zap.Logger
}

func NewStooqSource(logger *zap.Logger) *StooqSource {
	return &StooqSource{
		BaseURL: defaultStooqURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (s *StooqSource) Name() string { return "stooq" }

// stooqSymbol maps SPY to spy.us; tickers that already carry an exchange
// suffix are passed through lowercased.
func stooqSymbol(ticker string) string {
	t := strings.ToLower(strings.TrimSpace(ticker))
	if strings.Contains(t, ".") {
		return t
	}
	return t + ".us"
}

func (s *StooqSource) DailyCloses(ctx context.Context, ticker string, start, end Date) (PriceSeries, error) {
	q := url.Values{}
	q.Set("s", stooqSymbol(ticker))
	q.Set("i", "d")
	q.Set("d1", start.Time().Format("20060102"))
	q.Set("d2", end.Time().Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build stooq request")
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "stooq fetch failed for %s", ticker)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("stooq fetch failed for %s (%d)", ticker, resp.StatusCode)
	}

	rows, err := parseStooqCSV(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "stooq %s", ticker)
	}
	s.logger.Debug("stooq: fetched", zap.String("ticker", ticker), zap.Int("rows", len(rows)))
	return cleanSeries(clip(rows, start, end)), nil
}

// parseStooqCSV skips the header and any row whose date or close does not
// parse. A body without a header ("No data") yields an empty series.
func parseStooqCSV(r io.Reader) (PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	closeIdx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "close") {
			closeIdx = i
		}
	}
	if closeIdx < 0 {
		return nil, nil
	}

	var out PriceSeries
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}
		if len(rec) <= closeIdx {
			continue
		}
		d, err := ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(rec[closeIdx]), 64)
		if err != nil {
			continue
		}
		out = append(out, PriceRow{Date: d, Close: c})
	}
	return out, nil
}
