package s0_data

import (
	"context"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
	"github.com/wonny/stox/backend/pkg/redis"
)

// CachedSource puts a Redis read-through cache in front of another source.
// Cache failures are logged and fall through to the inner source.
type CachedSource struct {
	inner  contracts.SeriesSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource creates a read-through cache wrapper
func NewCachedSource(inner contracts.SeriesSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	return &CachedSource{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("module", "series_cache"),
	}
}

// cachedBar stores NaN as null since JSON has no NaN
type cachedBar struct {
	Date   time.Time `json:"d"`
	Open   *float64  `json:"o"`
	High   *float64  `json:"h"`
	Low    *float64  `json:"l"`
	Close  *float64  `json:"c"`
	Volume *float64  `json:"v"`
}

// Fetch implements contracts.SeriesSource
func (s *CachedSource) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	key := redis.SeriesKey(symbol.String(), from.Format("2006-01-02"))

	var cached []cachedBar
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol.String()).Warn("series cache read failed")
	}
	if found {
		return decodeBars(symbol, cached), nil
	}

	series, err := s.inner.Fetch(ctx, symbol, from)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, encodeBars(series), s.ttl); err != nil {
		s.logger.WithError(err).WithField("symbol", symbol.String()).Warn("series cache write failed")
	}
	return series, nil
}

func encodeBars(series *contracts.RawSeries) []cachedBar {
	out := make([]cachedBar, len(series.Bars))
	for i, b := range series.Bars {
		out[i] = cachedBar{
			Date:   b.Date,
			Open:   nullable(b.Open),
			High:   nullable(b.High),
			Low:    nullable(b.Low),
			Close:  nullable(b.Close),
			Volume: nullable(b.Volume),
		}
	}
	return out
}

func decodeBars(symbol contracts.Symbol, cached []cachedBar) *contracts.RawSeries {
	series := &contracts.RawSeries{Symbol: symbol, Bars: make([]contracts.Bar, len(cached))}
	for i, c := range cached {
		series.Bars[i] = contracts.Bar{
			Date:   c.Date,
			Open:   orNaN(c.Open),
			High:   orNaN(c.High),
			Low:    orNaN(c.Low),
			Close:  orNaN(c.Close),
			Volume: orNaN(c.Volume),
		}
	}
	return series
}
