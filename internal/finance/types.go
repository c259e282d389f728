package finance

// Yahoo wire formats, trimmed to the fields the daily close readers use.
// Missing closes arrive as JSON null and decode to 0; cleanSeries drops them.

type yahooChartMeta struct {
	Symbol    string `json:"symbol"`
	Currency  string `json:"currency"`
	GmtOffset int    `json:"gmtoffset"`
	Timezone  string `json:"exchangeTimezoneName"`
}

type yahooChartResult struct {
	Meta       yahooChartMeta `json:"meta"`
	Timestamp  []int64        `json:"timestamp"`
	Indicators struct {
		Quote    []struct{ Close []float64 `json:"close"` }       `json:"quote"`
		AdjClose []struct{ AdjClose []float64 `json:"adjclose"` } `json:"adjclose"`
	} `json:"indicators"`
}

// closes picks adjusted closes when asked and present.
func (r yahooChartResult) closes(adjusted bool) []float64 {
	if adjusted && len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		return r.Indicators.AdjClose[0].AdjClose
	}
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	return r.Indicators.Quote[0].Close
}

// v8 /finance/chart
type yahooChartResp struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  any                `json:"error"`
	} `json:"chart"`
}

type yahooSparkSeries struct {
	Timestamp []int64   `json:"timestamp"`
	Close     []float64 `json:"close"`
}

// v7 /finance/spark, used when the chart endpoint keeps failing
type yahooSparkResp struct {
	Spark struct {
		Result []struct {
			Symbol   string             `json:"symbol"`
			Response []yahooSparkSeries `json:"response"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"spark"`
}
