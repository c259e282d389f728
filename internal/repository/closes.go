package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crisisReplay/internal/finance"
)

// DailyCloses returns the stored closes of ticker with start <= day <= end.
func (db *Database) DailyCloses(ctx context.Context, ticker string, start, end finance.Date) (finance.PriceSeries, error) {
	rows, err := db.closes.GetDailyCloses(ctx, ticker, start.Time(), end.Time())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticker %s: %w", ticker, ErrNoCloses)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ticker %s: %w", ticker, ErrNoCloses)
	}
	return convertCloses(rows), nil
}

func convertCloses(rows []closeRow) finance.PriceSeries {
	out := make(finance.PriceSeries, 0, len(rows))
	for _, r := range rows {
		if !r.Close.IsPositive() {
			continue
		}
		out = append(out, finance.PriceRow{
			Date:  finance.DateOf(r.Day),
			Close: r.Close.InexactFloat64(),
		})
	}
	return out
}
