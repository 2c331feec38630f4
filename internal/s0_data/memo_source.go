package s0_data

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wonny/stox/backend/internal/contracts"
)

// MemoSource keeps recently fetched series in a bounded in-process LRU.
// Cached series are shared between callers and must be treated as read-only.
type MemoSource struct {
	inner contracts.SeriesSource
	cache *lru.Cache[string, *contracts.RawSeries]
}

// NewMemoSource creates an LRU wrapper holding at most size series
func NewMemoSource(inner contracts.SeriesSource, size int) (*MemoSource, error) {
	cache, err := lru.New[string, *contracts.RawSeries](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoSource{inner: inner, cache: cache}, nil
}

// Fetch implements contracts.SeriesSource
func (m *MemoSource) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	key := symbol.String() + "@" + from.Format(time.DateOnly)
	if series, ok := m.cache.Get(key); ok {
		return series, nil
	}

	series, err := m.inner.Fetch(ctx, symbol, from)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, series)
	return series, nil
}

// Purge drops every memoised series (start of a new build run)
func (m *MemoSource) Purge() {
	m.cache.Purge()
}

// Len returns the number of memoised series
func (m *MemoSource) Len() int {
	return m.cache.Len()
}
