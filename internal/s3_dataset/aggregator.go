package s3_dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
	"github.com/wonny/stox/backend/pkg/metrics"
)

// CategoricalCardinality: a column with fewer distinct values is flagged categorical
const CategoricalCardinality = 6

// alwaysCategorical columns are flagged regardless of observed cardinality
var alwaysCategorical = map[string]bool{"week": true, "HT_TRENDMODE": true}

// Aggregator builds the multi-ticker dataset (S3)
// ⭐ SSOT: 데이터셋 통합은 여기서만
type Aggregator struct {
	builder  *TickerBuilder
	source   contracts.SeriesSource
	resolver contracts.IndexResolver
	workers  int
	logger   *logger.Logger
	recorder *metrics.Recorder
}

// NewAggregator creates an aggregator. recorder may be nil.
func NewAggregator(
	builder *TickerBuilder,
	source contracts.SeriesSource,
	resolver contracts.IndexResolver,
	workers int,
	log *logger.Logger,
	recorder *metrics.Recorder,
) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		builder:  builder,
		source:   source,
		resolver: resolver,
		workers:  workers,
		logger:   log.WithField("module", "s3_dataset"),
		recorder: recorder,
	}
}

type buildOutcome struct {
	table *contracts.FeatureTable
	err   error
}

// Build fetches every market index once, fans ticker builds out over a bounded
// worker pool and merges the results. Per-ticker failures are reported, not returned.
func (a *Aggregator) Build(ctx context.Context, symbols []contracts.Symbol, opts contracts.BuildOptions) (*contracts.Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := a.builder.CheckColumns(opts); err != nil {
		return nil, err
	}

	start := time.Now()
	symbols = dedupe(symbols)
	report := contracts.BuildReport{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Requested: len(symbols),
		Built:     []string{},
		Excluded:  []contracts.Exclusion{},
	}
	log := a.logger.WithField("run_id", report.RunID)

	log.WithFields(map[string]interface{}{
		"tickers":  len(symbols),
		"lookback": opts.Lookback,
		"lookfwd":  opts.Lookfwd,
		"resample": opts.Resample,
		"workers":  a.workers,
	}).Info("dataset build started")

	// 1. Market index contexts, once per market, before any ticker work
	contexts, indexErrs := a.buildIndexContexts(ctx, symbols, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Fan out
	outcomes := make([]buildOutcome, len(symbols))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, sym := range symbols {
		if err, failed := indexErrs[sym.Market]; failed {
			outcomes[i] = buildOutcome{err: err}
			continue
		}
		index := contexts[sym.Market]
		g.Go(func() error {
			// 한 종목의 panic은 해당 종목만 제외
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = buildOutcome{err: fmt.Errorf("%s: build panicked: %v", sym, r)}
				}
			}()
			table, err := a.builder.Build(ctx, sym, opts, index)
			outcomes[i] = buildOutcome{table: table, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Merge
	ds := &contracts.Dataset{Columns: a.builder.Columns(opts)}
	for i, sym := range symbols {
		out := outcomes[i]
		if out.err == nil && !equalColumns(out.table.Columns, ds.Columns) {
			out.err = fmt.Errorf("%s: column layout mismatch", sym)
		}
		if out.err != nil {
			a.exclude(log, &report, sym, out.err)
			continue
		}
		ds.Rows = append(ds.Rows, out.table.Rows...)
		if out.table.Predictor != nil {
			ds.Predictors = append(ds.Predictors, *out.table.Predictor)
		}
		report.Built = append(report.Built, sym.String())
		a.recorder.TickerBuilt()
	}

	sort.SliceStable(ds.Rows, func(i, j int) bool {
		ri, rj := ds.Rows[i], ds.Rows[j]
		if !ri.Date.Equal(rj.Date) {
			return ri.Date.Before(rj.Date)
		}
		return ri.Symbol.String() < rj.Symbol.String()
	})
	sort.SliceStable(ds.Predictors, func(i, j int) bool {
		return ds.Predictors[i].Symbol.String() < ds.Predictors[j].Symbol.String()
	})
	sort.Strings(report.Built)

	ds.Categorical = categoricalColumns(ds)

	report.FinishedAt = time.Now()
	ds.Report = report
	a.recorder.ObserveBuild(report.FinishedAt.Sub(start), len(ds.Rows))

	log.WithFields(map[string]interface{}{
		"built":    len(report.Built),
		"excluded": len(report.Excluded),
		"rows":     len(ds.Rows),
		"columns":  len(ds.Columns),
		"elapsed":  report.FinishedAt.Sub(start).String(),
	}).Info("dataset build finished")

	return ds, nil
}

// buildIndexContexts builds one immutable context per distinct market.
// Markets whose index cannot be resolved or built map to an error instead.
func (a *Aggregator) buildIndexContexts(
	ctx context.Context,
	symbols []contracts.Symbol,
	opts contracts.BuildOptions,
) (map[string]*MarketIndexContext, map[string]error) {
	contexts := make(map[string]*MarketIndexContext)
	failures := make(map[string]error)

	for _, m := range markets(symbols) {
		index, ok := a.resolver.IndexFor(m)
		if !ok {
			failures[m] = fmt.Errorf("market %s: no index configured: %w", m, contracts.ErrIndexUnavailable)
		} else {
			ic, err := BuildIndexContext(ctx, a.source, a.builder.Preprocessor(), m, index, opts)
			if err != nil {
				failures[m] = err
			} else {
				contexts[m] = ic
				continue
			}
		}

		a.logger.WithFields(map[string]interface{}{
			"market": m,
			"error":  failures[m].Error(),
		}).Warn("market index unavailable, excluding its tickers")
	}
	return contexts, failures
}

func (a *Aggregator) exclude(log *logger.Logger, report *contracts.BuildReport, sym contracts.Symbol, err error) {
	reason := contracts.ExclusionReason(err)
	report.Excluded = append(report.Excluded, contracts.Exclusion{
		Symbol: sym.String(),
		Reason: reason,
		Error:  err.Error(),
	})
	a.recorder.TickerExcluded(reason)

	entry := log.WithFields(map[string]interface{}{
		"symbol": sym.String(),
		"reason": reason,
	})
	if errors.Is(err, contracts.ErrInsufficientHistory) {
		entry.Debug("ticker excluded")
		return
	}
	entry.WithError(err).Warn("ticker excluded")
}

// categoricalColumns flags low-cardinality columns plus pattern and calendar columns
func categoricalColumns(ds *contracts.Dataset) []string {
	var out []string
	for j, name := range ds.Columns {
		if alwaysCategorical[name] || strings.HasPrefix(name, "CDL") {
			out = append(out, name)
			continue
		}
		if len(ds.Rows) == 0 && len(ds.Predictors) == 0 {
			continue
		}
		if distinctBelow(ds, j, CategoricalCardinality) {
			out = append(out, name)
		}
	}
	return out
}

// distinctBelow reports whether column j has fewer than limit distinct non-NaN values
func distinctBelow(ds *contracts.Dataset, j, limit int) bool {
	seen := make(map[float64]struct{}, limit)
	check := func(rows []contracts.FeatureRow) bool {
		for i := range rows {
			v := rows[i].Values[j]
			if math.IsNaN(v) {
				continue
			}
			seen[v] = struct{}{}
			if len(seen) >= limit {
				return false
			}
		}
		return true
	}
	return check(ds.Rows) && check(ds.Predictors)
}

func markets(symbols []contracts.Symbol) []string {
	set := make(map[string]bool)
	var out []string
	for _, s := range symbols {
		if !set[s.Market] {
			set[s.Market] = true
			out = append(out, s.Market)
		}
	}
	sort.Strings(out)
	return out
}

func dedupe(symbols []contracts.Symbol) []contracts.Symbol {
	seen := make(map[contracts.Symbol]bool, len(symbols))
	out := make([]contracts.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
