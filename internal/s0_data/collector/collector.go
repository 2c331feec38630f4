package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/s0_data/quality"
	"github.com/wonny/stox/backend/pkg/logger"
)

// BarWriter persists a raw series (PriceRepository, SQLiteRepository)
type BarWriter interface {
	SaveBatch(ctx context.Context, series *contracts.RawSeries, isIndex bool) error
}

// Collector copies series from a source into a bar store
// ⭐ SSOT: 데이터 적재 오케스트레이션은 이 패키지에서만
type Collector struct {
	source contracts.SeriesSource
	store  BarWriter
	gate   *quality.QualityGate // optional
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int       // Number of concurrent workers
	From    time.Time // lower bound on history
}

// Job is one symbol to copy
type Job struct {
	Symbol  contracts.Symbol
	IsIndex bool
}

// SyncResult represents the result of one symbol copy
type SyncResult struct {
	Symbol   contracts.Symbol
	BarCount int
	Quality  *quality.Snapshot // nil without a gate
	Error    error
}

// NewCollector creates a new Collector instance
func NewCollector(source contracts.SeriesSource, store BarWriter, log *logger.Logger) *Collector {
	return &Collector{
		source: source,
		store:  store,
		logger: log.WithField("module", "collector"),
	}
}

// WithQualityGate scores every fetched series before it is stored.
// Series that fail the gate are still stored and reported.
func (c *Collector) WithQualityGate(g *quality.QualityGate) *Collector {
	c.gate = g
	return c
}

// Sync copies every job's series. Per-symbol failures are reported in the results.
func (c *Collector) Sync(ctx context.Context, jobs []Job, cfg Config) ([]SyncResult, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", cfg.Workers)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols": len(jobs),
		"workers": cfg.Workers,
	}).Info("Starting series sync")

	resultCh := make(chan SyncResult, len(jobs))
	jobCh := make(chan Job, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, jobCh, resultCh, cfg.From)
		}(i)
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]SyncResult, 0, len(jobs))
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(results) - failCount,
		"failed":  failCount,
	}).Info("Series sync completed")

	return results, nil
}

func (c *Collector) worker(ctx context.Context, workerID int, jobCh <-chan Job, resultCh chan<- SyncResult, from time.Time) {
	for job := range jobCh {
		select {
		case <-ctx.Done():
			resultCh <- SyncResult{Symbol: job.Symbol, Error: ctx.Err()}
			continue
		default:
		}

		series, err := c.source.Fetch(ctx, job.Symbol, from)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": job.Symbol.String(),
			}).Error("Failed to fetch series")
			resultCh <- SyncResult{Symbol: job.Symbol, Error: err}
			continue
		}

		var snap *quality.Snapshot
		if c.gate != nil {
			snap = c.gate.Check(series)
			if !snap.Passed {
				c.logger.WithFields(map[string]interface{}{
					"symbol":   job.Symbol.String(),
					"score":    snap.QualityScore,
					"failures": snap.Failures,
				}).Warn("Series below quality thresholds")
			}
		}

		if err := c.store.SaveBatch(ctx, series, job.IsIndex); err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": job.Symbol.String(),
			}).Error("Failed to save series")
			resultCh <- SyncResult{Symbol: job.Symbol, BarCount: series.Len(), Quality: snap, Error: err}
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"symbol": job.Symbol.String(),
			"count":  series.Len(),
		}).Debug("Synced series")

		resultCh <- SyncResult{Symbol: job.Symbol, BarCount: series.Len(), Quality: snap}
	}
}
