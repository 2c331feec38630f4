package s3_dataset

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/s1_clean"
	"github.com/wonny/stox/backend/internal/s2_features"
	"github.com/wonny/stox/backend/pkg/logger"
)

// Outlier band for the ticker's own percent change
const (
	HighOutlier = 890.0
	LowOutlier  = -89.0
)

// Base feature columns, in table order
var baseColumns = []string{"spc", "mpc", "spc_minus_mpc", "gap", "spread", "volume", "week"}

// ribbonSources get lagged copies and regression slopes for every lag in 2..lookback
var ribbonSources = []string{"spc", "mpc", "spc_minus_mpc", "volume"}

// TickerBuilder produces one ticker's feature table (S3)
// ⭐ SSOT: 티커 단위 데이터셋 구성은 여기서만
type TickerBuilder struct {
	source    contracts.SeriesSource
	pre       *s1_clean.Preprocessor
	generator *s2_features.Generator
	extras    []contracts.ExtraFeature
	logger    *logger.Logger
}

// NewTickerBuilder creates a builder. Extra features are appended after the ribbons.
func NewTickerBuilder(source contracts.SeriesSource, log *logger.Logger, extras ...contracts.ExtraFeature) *TickerBuilder {
	return &TickerBuilder{
		source:    source,
		pre:       s1_clean.NewPreprocessor(log),
		generator: s2_features.NewGenerator(),
		extras:    extras,
		logger:    log.WithField("module", "s3_dataset"),
	}
}

// Preprocessor exposes the builder's preprocessor for index contexts
func (b *TickerBuilder) Preprocessor() *s1_clean.Preprocessor {
	return b.pre
}

// Columns lists the feature columns Build emits for the options
func (b *TickerBuilder) Columns(opts contracts.BuildOptions) []string {
	cols := append([]string{}, baseColumns...)
	cols = append(cols, b.generator.ColumnNames(opts.Lookback, opts.Patterns)...)
	for _, src := range ribbonSources {
		for i := 2; i <= opts.Lookback; i++ {
			cols = append(cols, fmt.Sprintf("past_%s_%d", src, i), fmt.Sprintf("LINEARREG_SLOPE_%s_%d", src, i))
		}
	}
	for _, e := range b.extras {
		cols = append(cols, e.Name())
	}
	return cols
}

// CheckColumns rejects a layout with repeated column names, e.g. an extra
// feature that shadows a generated one.
func (b *TickerBuilder) CheckColumns(opts contracts.BuildOptions) error {
	seen := make(map[string]bool)
	for _, name := range b.Columns(opts) {
		if seen[name] {
			return fmt.Errorf("duplicate feature column %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Build runs fetch, clean, generate, align, ribbon, label and filter for one ticker.
// The index context is only read.
func (b *TickerBuilder) Build(
	ctx context.Context,
	symbol contracts.Symbol,
	opts contracts.BuildOptions,
	index *MarketIndexContext,
) (*contracts.FeatureTable, error) {
	if index == nil {
		return nil, fmt.Errorf("%s: %w", symbol, contracts.ErrIndexUnavailable)
	}
	cleanOpts, err := s1_clean.OptionsFrom(opts)
	if err != nil {
		return nil, err
	}
	if err := b.CheckColumns(opts); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	// 1. Fetch
	raw, err := b.source.Fetch(ctx, symbol, opts.StartDate)
	if err != nil {
		if errors.Is(err, contracts.ErrSourceFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", contracts.ErrSourceFetch, symbol, err)
	}
	if raw.Len() < opts.Lookback || raw.Len() == 0 {
		return nil, fmt.Errorf("%s: %d raw rows, need %d: %w", symbol, raw.Len(), opts.Lookback, contracts.ErrInsufficientHistory)
	}

	// 2. Clean
	series, err := b.pre.Preprocess(raw, cleanOpts)
	if err != nil {
		return nil, err
	}
	n := series.Len()

	// 3. Technical features
	fs := b.generator.Generate(series, opts.Lookback, opts.Patterns)

	// 4. Base and index-relative features
	base := b.baseFeatures(series, index)

	// 5. Ribbons
	ribbons := make([][]float64, 0, len(ribbonSources)*2*max(0, opts.Lookback-1))
	for _, src := range ribbonSources {
		col := base[src]
		for i := 2; i <= opts.Lookback; i++ {
			ribbons = append(ribbons, s2_features.Shift(col, i), s2_features.LinearRegSlope(col, i))
		}
	}

	extras := make([][]float64, len(b.extras))
	for i, e := range b.extras {
		extras[i] = e.Compute(series)
		if len(extras[i]) != n {
			return nil, fmt.Errorf("%s: extra feature %s returned %d rows, want %d", symbol, e.Name(), len(extras[i]), n)
		}
	}

	// 6. Assemble rows in column order
	columns := b.Columns(opts)
	width := len(columns)
	buf := make([]float64, n*width)
	for t := 0; t < n; t++ {
		row := buf[t*width : (t+1)*width]
		j := 0
		for _, name := range baseColumns {
			row[j] = base[name][t]
			j++
		}
		for _, col := range fs.Columns {
			row[j] = col[t]
			j++
		}
		for _, col := range ribbons {
			row[j] = col[t]
			j++
		}
		for _, col := range extras {
			row[j] = col[t]
			j++
		}
	}

	// 7. Label and filter
	future := forwardReturn(series.Price, opts.Lookfwd)
	table := &contracts.FeatureTable{Symbol: symbol, Columns: columns}
	for t := 0; t < n-1; t++ {
		r := contracts.FeatureRow{Date: series.Dates[t], Symbol: symbol, Values: buf[t*width : (t+1)*width], Future: future[t]}
		if math.IsNaN(r.Future) || r.HasNaN() || series.Volume[t] == 0 {
			continue
		}
		table.Rows = append(table.Rows, r)
	}
	table.Predictor = &contracts.FeatureRow{
		Date:   series.Dates[n-1],
		Symbol: symbol,
		Values: buf[(n-1)*width:],
		Future: math.NaN(),
	}

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%s: no complete training rows: %w", symbol, contracts.ErrInsufficientHistory)
	}

	b.logger.WithFields(map[string]interface{}{
		"symbol":  symbol.String(),
		"rows":    len(table.Rows),
		"columns": width,
	}).Debug("ticker built")

	return table, nil
}

// baseFeatures computes own/index returns, scaled gap/spread, normalised volume and ISO week
func (b *TickerBuilder) baseFeatures(s *contracts.CleanedSeries, index *MarketIndexContext) map[string][]float64 {
	n := s.Len()
	spc := make([]float64, n)
	mpc := make([]float64, n)
	rel := make([]float64, n)
	gap := make([]float64, n)
	spread := make([]float64, n)
	volume := make([]float64, n)
	week := make([]float64, n)

	var sumV, sumP float64
	for t := 0; t < n; t++ {
		spc[t] = s.PC[t]
		if spc[t] > HighOutlier || spc[t] < LowOutlier {
			spc[t] = math.NaN()
		}

		if v, ok := index.PCAt(s.Dates[t]); ok {
			mpc[t] = v
		} else {
			mpc[t] = math.NaN()
		}
		rel[t] = spc[t] - mpc[t]

		gap[t] = 100 * s.Gap[t] / s.Price[t]
		spread[t] = 100 * s.Spread[t] / s.Price[t]

		// expanding means: row t only sees rows <= t
		sumV += s.Volume[t]
		sumP += s.Price[t]
		meanV := sumV / float64(t+1)
		meanP := sumP / float64(t+1)
		if meanV == 0 || meanP == 0 {
			volume[t] = math.NaN()
		} else {
			volume[t] = (s.Volume[t] / meanV) * (s.Price[t] / meanP)
		}

		_, w := s.Dates[t].ISOWeek()
		week[t] = float64(w)
	}

	return map[string][]float64{
		"spc":           spc,
		"mpc":           mpc,
		"spc_minus_mpc": rel,
		"gap":           gap,
		"spread":        spread,
		"volume":        volume,
		"week":          week,
	}
}

// forwardReturn is the percent change from price[t] to price[t+k]; NaN past the end
func forwardReturn(price []float64, k int) []float64 {
	out := make([]float64, len(price))
	for t := range price {
		if t+k >= len(price) || k < 1 {
			out[t] = math.NaN()
			continue
		}
		out[t] = (price[t+k]/price[t] - 1) * 100
	}
	return out
}
