package s3_dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/s1_clean"
)

// MarketIndexContext is an immutable per-market benchmark snapshot.
// It is built once per aggregation run and shared read-only by every worker.
type MarketIndexContext struct {
	market string
	symbol contracts.Symbol
	rows   int
	pc     map[time.Time]float64
}

// NewMarketIndexContext snapshots a cleaned index series
func NewMarketIndexContext(market string, series *contracts.CleanedSeries) *MarketIndexContext {
	return &MarketIndexContext{
		market: market,
		symbol: series.Symbol,
		rows:   series.Len(),
		pc:     series.PCByDate(),
	}
}

// BuildIndexContext fetches and cleans a market's index with the dataset options
func BuildIndexContext(
	ctx context.Context,
	source contracts.SeriesSource,
	pre *s1_clean.Preprocessor,
	market string,
	index contracts.Symbol,
	opts contracts.BuildOptions,
) (*MarketIndexContext, error) {
	cleanOpts, err := s1_clean.OptionsFrom(opts)
	if err != nil {
		return nil, err
	}

	raw, err := source.Fetch(ctx, index, opts.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", contracts.ErrIndexUnavailable, index, err)
	}

	series, err := pre.Preprocess(raw, cleanOpts)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			return nil, fmt.Errorf("%w: %s has too little history", contracts.ErrIndexUnavailable, index)
		}
		return nil, fmt.Errorf("%w: clean %s: %w", contracts.ErrIndexUnavailable, index, err)
	}
	return NewMarketIndexContext(market, series), nil
}

// Market returns the market code
func (m *MarketIndexContext) Market() string { return m.market }

// Symbol returns the index symbol
func (m *MarketIndexContext) Symbol() contracts.Symbol { return m.symbol }

// Len returns the number of index rows
func (m *MarketIndexContext) Len() int { return m.rows }

// PCAt returns the index percent change on a date
func (m *MarketIndexContext) PCAt(date time.Time) (float64, bool) {
	v, ok := m.pc[date]
	return v, ok
}
