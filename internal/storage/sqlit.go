package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"crisisReplay/internal/finance"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}

type Store struct {
	db  DB
	now func() time.Time
}

func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// a single connection keeps ":memory:" databases alive and serializes writes
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(ctx context.Context, db DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_cache(
			ticker TEXT NOT NULL, start TEXT NOT NULL, "end" TEXT NOT NULL,
			rows TEXT NOT NULL, fetched_at INTEGER NOT NULL,
			PRIMARY KEY (ticker, start, "end")
		)`,
		`CREATE TABLE IF NOT EXISTS runs(
			id TEXT PRIMARY KEY, created_at INTEGER NOT NULL, source TEXT NOT NULL,
			crisis TEXT NOT NULL, weights TEXT NOT NULL, cadence TEXT NOT NULL,
			total_return REAL, max_drawdown REAL, recovery_days INTEGER, sharpe REAL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db, now: time.Now} }

// LoadSeries returns the cached rows for an exact ticker window. Entries older
// than maxAge are ignored; maxAge <= 0 means cached rows never expire.
func (s *Store) LoadSeries(ctx context.Context, ticker string, start, end finance.Date, maxAge time.Duration) (finance.PriceSeries, bool, error) {
	var (
		blob      string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT rows, fetched_at FROM price_cache WHERE ticker=? AND start=? AND "end"=?`,
		ticker, start.String(), end.String()).Scan(&blob, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load cached %s", ticker)
	}
	if maxAge > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}
	var rows finance.PriceSeries
	if err := json.Unmarshal([]byte(blob), &rows); err != nil {
		return nil, false, errors.Wrapf(err, "decode cached %s", ticker)
	}
	return rows, true, nil
}

func (s *Store) SaveSeries(ctx context.Context, ticker string, start, end finance.Date, rows finance.PriceSeries) error {
	blob, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "encode rows")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO price_cache(ticker,start,"end",rows,fetched_at) VALUES(?,?,?,?,?)`,
		ticker, start.String(), end.String(), string(blob), s.now().Unix())
	return errors.Wrapf(err, "cache %s", ticker)
}

// Run is one persisted replay with its headline metrics.
type Run struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	Source       string          `json:"source"` // "telegram", "http", "cli"
	Crisis       string          `json:"crisis"`
	Weights      string          `json:"weights"` // canonical "SPY=0.6,TLT=0.4"
	Cadence      finance.Cadence `json:"cadence"`
	TotalReturn  float64         `json:"totalReturn"`
	MaxDrawdown  float64         `json:"maxDrawdown"`
	RecoveryDays *int            `json:"recoveryDays"`
	Sharpe       float64         `json:"sharpe"`
}

// Tickers lists the symbols of the stored weights.
func (r Run) Tickers() []string {
	var out []string
	for _, part := range strings.Split(r.Weights, ",") {
		if sym, _, ok := strings.Cut(part, "="); ok && sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

func (s *Store) SaveRun(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	var rec sql.NullInt64
	if r.RecoveryDays != nil {
		rec = sql.NullInt64{Int64: int64(*r.RecoveryDays), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(id,created_at,source,crisis,weights,cadence,total_return,max_drawdown,recovery_days,sharpe)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.CreatedAt.Unix(), r.Source, r.Crisis, r.Weights, string(r.Cadence),
		r.TotalReturn, r.MaxDrawdown, rec, r.Sharpe)
	return errors.Wrap(err, "save run")
}

// RecentRuns returns the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,created_at,source,crisis,weights,cadence,total_return,max_drawdown,recovery_days,sharpe
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			ts      int64
			cadence string
			rec     sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &ts, &r.Source, &r.Crisis, &r.Weights, &cadence,
			&r.TotalReturn, &r.MaxDrawdown, &rec, &r.Sharpe); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.CreatedAt = time.Unix(ts, 0)
		r.Cadence = finance.Cadence(cadence)
		if rec.Valid {
			d := int(rec.Int64)
			r.RecoveryDays = &d
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate runs")
}

// RunCounts counts runs per crisis since the given time.
func (s *Store) RunCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT crisis, COUNT(*) FROM runs WHERE created_at >= ? GROUP BY crisis`, since.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "count runs")
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			crisis string
			n      int
		)
		if err := rows.Scan(&crisis, &n); err != nil {
			return nil, errors.Wrap(err, "scan count")
		}
		out[crisis] = n
	}
	return out, errors.Wrap(rows.Err(), "iterate counts")
}
