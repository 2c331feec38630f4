package contracts

import (
	"context"
	"time"
)

// SeriesSource reads raw daily series (S0)
// ⭐ SSOT: S0 원본 시계열 조회 인터페이스
type SeriesSource interface {
	// Fetch returns bars dated on or after from (zero from = all history).
	// An unknown symbol yields an empty series, not an error.
	Fetch(ctx context.Context, symbol Symbol, from time.Time) (*RawSeries, error)
}

// IndexResolver maps a market to its benchmark index symbol (S0)
type IndexResolver interface {
	IndexFor(market string) (Symbol, bool)
}

// TickerLister enumerates tradeable tickers (S0)
type TickerLister interface {
	// ListTickers returns tickers of the given markets (all markets when empty)
	ListTickers(ctx context.Context, markets []string) ([]Symbol, error)
}

// ExtraFeature is an optional pluggable per-ticker feature column (S3).
// Compute must not read rows after the one it fills.
type ExtraFeature interface {
	Name() string
	Compute(series *CleanedSeries) []float64
}
