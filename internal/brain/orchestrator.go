package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/internal/s3_dataset"
	"github.com/wonny/stox/backend/internal/s4_evaluate"
	"github.com/wonny/stox/backend/pkg/logger"
)

// Orchestrator coordinates universe → dataset → evaluation → publish
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	aggregator *s3_dataset.Aggregator
	lister     contracts.TickerLister
	store      *Store
	logger     *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Profile     *profile.Profile
	ProfileYAML []byte
	Evaluate    bool // run S4 after the dataset is built
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	Success         bool
	Error           error
	CompletedStages []string
	Snapshot        *Snapshot
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator. lister may be nil when the profile names its tickers.
func NewOrchestrator(
	aggregator *s3_dataset.Aggregator,
	lister contracts.TickerLister,
	store *Store,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		aggregator: aggregator,
		lister:     lister,
		store:      store,
		logger:     log.WithField("module", "brain"),
	}
}

// Run executes the pipeline and publishes the snapshot
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()
	result := &RunResult{CompletedStages: make([]string, 0, 4)}

	p := config.Profile
	if p == nil {
		p = profile.Default()
	}

	o.logger.WithFields(map[string]interface{}{
		"profile":  p.Meta.ProfileID,
		"markets":  p.Universe.Markets,
		"evaluate": config.Evaluate,
	}).Info("Starting pipeline run")

	// Universe
	symbols, err := o.resolveUniverse(ctx, p)
	if err != nil {
		return o.fail(result, startTime, fmt.Errorf("universe: %w", err))
	}
	result.CompletedStages = append(result.CompletedStages, "universe")

	// Dataset (S1-S3)
	opts, err := p.BuildOptions()
	if err != nil {
		return o.fail(result, startTime, err)
	}
	ds, err := o.aggregator.Build(ctx, symbols, opts)
	if err != nil {
		return o.fail(result, startTime, fmt.Errorf("dataset: %w", err))
	}
	result.RunID = ds.Report.RunID
	result.CompletedStages = append(result.CompletedStages, "dataset")

	// Evaluation (S4)
	var report *s4_evaluate.Report
	if config.Evaluate && len(ds.Rows) > 0 {
		report, err = Evaluate(ctx, p, ds, o.logger)
		if err != nil {
			return o.fail(result, startTime, fmt.Errorf("evaluate: %w", err))
		}
		result.CompletedStages = append(result.CompletedStages, "evaluate")
	}

	// Publish
	meta, err := profile.NewSnapshot(p, config.ProfileYAML, ds.Report.RunID)
	if err != nil {
		return o.fail(result, startTime, fmt.Errorf("snapshot: %w", err))
	}
	snap := &Snapshot{Meta: *meta, Dataset: ds, Evaluation: report}
	o.store.Put(snap)
	result.Snapshot = snap
	result.CompletedStages = append(result.CompletedStages, "publish")

	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"rows":     len(ds.Rows),
		"built":    len(ds.Report.Built),
		"excluded": len(ds.Report.Excluded),
		"duration": result.Duration.String(),
	}).Info("Pipeline run completed")

	return result, nil
}

// Evaluate runs S4 with the profile's model and split settings
func Evaluate(ctx context.Context, p *profile.Profile, ds *contracts.Dataset, log *logger.Logger) (*s4_evaluate.Report, error) {
	model, err := s4_evaluate.NewRegressor(p.Evaluation.Regressor, p.Evaluation.K, p.Evaluation.Lambda)
	if err != nil {
		return nil, err
	}
	ev := s4_evaluate.NewEvaluator(model, s4_evaluate.Config{
		Split: s4_evaluate.SplitConfig{
			Ratio:      p.Evaluation.Ratio,
			Lookback:   p.Dataset.Lookback,
			Validation: p.Evaluation.Validation,
		},
		MinTestSamples: p.Evaluation.MinTestSamples,
	}, log)
	return ev.Evaluate(ctx, ds)
}

// resolveUniverse returns the profile's explicit tickers or lists the configured markets
func (o *Orchestrator) resolveUniverse(ctx context.Context, p *profile.Profile) ([]contracts.Symbol, error) {
	symbols, err := p.Symbols()
	if err != nil {
		return nil, err
	}
	if len(symbols) > 0 {
		return symbols, nil
	}
	if o.lister == nil {
		return nil, fmt.Errorf("profile has no tickers and no ticker lister is configured")
	}
	return o.lister.ListTickers(ctx, p.Universe.Markets)
}

func (o *Orchestrator) fail(result *RunResult, start time.Time, err error) (*RunResult, error) {
	result.Error = err
	result.Duration = time.Since(start)
	o.logger.WithFields(map[string]interface{}{
		"stages": result.CompletedStages,
		"error":  err.Error(),
	}).Error("Pipeline run failed")
	return result, err
}
