package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisisReplay/internal/finance"
)

type mockClosesRepository struct {
	sqlError error
	rows     []closeRow
	gotStart time.Time
	gotEnd   time.Time
}

func (m *mockClosesRepository) GetDailyCloses(_ context.Context, _ string, start, end time.Time) ([]closeRow, error) {
	m.gotStart, m.gotEnd = start, end
	if m.sqlError != nil {
		return nil, m.sqlError
	}
	return m.rows, nil
}

func day(s string) time.Time { return finance.MustParseDate(s).Time() }

func TestDatabase_DailyCloses(t *testing.T) {
	start, end := finance.MustParseDate("2008-09-12"), finance.MustParseDate("2008-09-16")
	boom := errors.New("connection reset")

	tests := []struct {
		name    string
		mock    *mockClosesRepository
		want    finance.PriceSeries
		wantErr error
	}{
		{"no rows", &mockClosesRepository{}, nil, ErrNoCloses},
		{"pgx no rows", &mockClosesRepository{sqlError: pgx.ErrNoRows}, nil, ErrNoCloses},
		{"driver error", &mockClosesRepository{sqlError: boom}, nil, boom},
		{
			"converts decimals",
			&mockClosesRepository{rows: []closeRow{
				{Day: day("2008-09-12"), Close: decimal.RequireFromString("125.43")},
				{Day: day("2008-09-15"), Close: decimal.RequireFromString("119.14")},
				{Day: day("2008-09-16"), Close: decimal.Zero},
			}},
			finance.PriceSeries{
				{Date: finance.MustParseDate("2008-09-12"), Close: 125.43},
				{Date: finance.MustParseDate("2008-09-15"), Close: 119.14},
			},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{closes: tt.mock}
			got, err := db.DailyCloses(context.Background(), "SPY", start, end)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, day("2008-09-12"), tt.mock.gotStart)
			assert.Equal(t, day("2008-09-16"), tt.mock.gotEnd)
		})
	}
}
