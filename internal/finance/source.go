package finance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PriceSource returns daily closes for one ticker with start <= date <= end,
// ascending. An empty series with a nil error means the provider has no data.
type PriceSource interface {
	DailyCloses(ctx context.Context, ticker string, start, end Date) (PriceSeries, error)
}

// Named is implemented by sources that want a readable name in logs.
type Named interface {
	Name() string
}

func sourceName(s PriceSource) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "source"
}

// FallbackSource asks each provider in order and returns the first non-empty series.
type FallbackSource struct {
	sources []PriceSource
	logger  *zap.Logger
}

func NewFallbackSource(logger *zap.Logger, sources ...PriceSource) *FallbackSource {
	return &FallbackSource{sources: sources, logger: logger}
}

func (f *FallbackSource) Name() string { return "fallback" }

func (f *FallbackSource) DailyCloses(ctx context.Context, ticker string, start, end Date) (PriceSeries, error) {
	var lastErr error
	for _, s := range f.sources {
		rows, err := s.DailyCloses(ctx, ticker, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("prices: provider failed",
				zap.String("provider", sourceName(s)), zap.String("ticker", ticker), zap.Error(err))
			lastErr = err
			continue
		}
		if len(rows) > 0 {
			return rows, nil
		}
		f.logger.Debug("prices: provider returned no rows",
			zap.String("provider", sourceName(s)), zap.String("ticker", ticker))
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// PriceCache persists fetched series keyed by ticker and window.
type PriceCache interface {
	LoadSeries(ctx context.Context, ticker string, start, end Date, maxAge time.Duration) (PriceSeries, bool, error)
	SaveSeries(ctx context.Context, ticker string, start, end Date, rows PriceSeries) error
}

// CachingSource is a read-through cache in front of another source. Empty
// results are not cached so that a provider outage is not remembered.
type CachingSource struct {
	next   PriceSource
	cache  PriceCache
	maxAge time.Duration
	logger *zap.Logger
}

func NewCachingSource(next PriceSource, cache PriceCache, maxAge time.Duration, logger *zap.Logger) *CachingSource {
	return &CachingSource{next: next, cache: cache, maxAge: maxAge, logger: logger}
}

func (c *CachingSource) Name() string { return "cache(" + sourceName(c.next) + ")" }

func (c *CachingSource) DailyCloses(ctx context.Context, ticker string, start, end Date) (PriceSeries, error) {
	rows, ok, err := c.cache.LoadSeries(ctx, ticker, start, end, c.maxAge)
	if err != nil {
		c.logger.Warn("prices: cache read failed", zap.String("ticker", ticker), zap.Error(err))
	} else if ok {
		return rows, nil
	}

	rows, err = c.next.DailyCloses(ctx, ticker, start, end)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", ticker)
	}
	if len(rows) > 0 {
		if err := c.cache.SaveSeries(ctx, ticker, start, end, rows); err != nil {
			c.logger.Warn("prices: cache write failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}
	return rows, nil
}
