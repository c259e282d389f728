package finance

import (
	"fmt"
	"math"
	"strings"
)

// alignedPrices is the inner join of several price series: the dates on which
// every ticker traded, ascending, and the close of each ticker on each date.
type alignedPrices struct {
	dates  []Date
	prices map[Date]map[string]float64
}

// alignSeries keeps only the dates present in every ticker's series. No
// forward filling: a holiday on one exchange removes that date for all.
func alignSeries(prices map[string]PriceSeries, tickers []string) (*alignedPrices, error) {
	byTicker := make(map[string]map[Date]float64, len(tickers))
	union := map[Date]struct{}{}
	for _, t := range tickers {
		m := map[Date]float64{}
		for _, row := range prices[t] {
			if math.IsNaN(row.Close) || math.IsInf(row.Close, 0) {
				continue
			}
			m[row.Date] = row.Close
			union[row.Date] = struct{}{}
		}
		byTicker[t] = m
	}

	dates := make([]Date, 0, len(union))
	table := make(map[Date]map[string]float64, len(union))
	for d := range union {
		row := make(map[string]float64, len(tickers))
		complete := true
		for _, t := range tickers {
			p, ok := byTicker[t][d]
			if !ok {
				complete = false
				break
			}
			row[t] = p
		}
		if !complete {
			continue
		}
		dates = append(dates, d)
		table[d] = row
	}
	sortDates(dates)

	if len(dates) < 2 {
		counts := make([]string, 0, len(tickers))
		for _, t := range tickers {
			counts = append(counts, fmt.Sprintf("%s=%d", t, len(prices[t])))
		}
		return nil, fmt.Errorf("%w: %d common dates (%s)", ErrInsufficientAlignedData, len(dates), strings.Join(counts, ", "))
	}
	return &alignedPrices{dates: dates, prices: table}, nil
}
