package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNoCloses = errors.New("no closes found in datasource")

type closeRow struct {
	Day   time.Time
	Close decimal.Decimal
}

type closesRepository interface {
	GetDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]closeRow, error)
}

// Database reads daily closes from a Postgres table
// daily_closes(ticker text, day date, close numeric).
type Database struct {
	closes closesRepository
	conn   *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return &Database{closes: queries{pool: conn}, conn: conn}, nil
}

func (db *Database) Name() string { return "postgres" }

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

type queries struct {
	pool *pgxpool.Pool
}

func (q queries) GetDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]closeRow, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT day, close FROM daily_closes WHERE ticker = $1 AND day BETWEEN $2 AND $3 ORDER BY day`,
		ticker, start, end)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[closeRow])
}
