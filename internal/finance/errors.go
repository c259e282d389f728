package finance

import "errors"

var (
	ErrNoPositiveWeight        = errors.New("set at least one weight > 0")
	ErrInsufficientData        = errors.New("not enough data")
	ErrInsufficientAlignedData = errors.New("not enough overlapping data across tickers")
	ErrUnknownCadence          = errors.New("unknown rebalance cadence")
	ErrNoUsableTickers         = errors.New("no usable tickers in this window")
)
