package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/s0_data/collector"
	"github.com/wonny/stox/backend/pkg/logger"
)

// DataSyncJob copies recent bars from an upstream source into the bar store
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type DataSyncJob struct {
	collector *collector.Collector
	lister    contracts.TickerLister
	indices   map[string]contracts.Symbol
	markets   []string
	window    time.Duration // 0 = full history
	workers   int
	logger    *logger.Logger
}

// NewDataSyncJob creates a new data sync job
func NewDataSyncJob(
	col *collector.Collector,
	lister contracts.TickerLister,
	indices map[string]contracts.Symbol,
	markets []string,
	window time.Duration,
	workers int,
	log *logger.Logger,
) *DataSyncJob {
	return &DataSyncJob{
		collector: col,
		lister:    lister,
		indices:   indices,
		markets:   markets,
		window:    window,
		workers:   workers,
		logger:    log,
	}
}

// Name returns the job name
func (j *DataSyncJob) Name() string {
	return "data_sync"
}

// Schedule returns the cron schedule (weekdays 6 PM, before the rebuild)
func (j *DataSyncJob) Schedule() string {
	return "0 0 18 * * 1-5"
}

// Jobs lists every ticker and the index of each configured market
func (j *DataSyncJob) Jobs(ctx context.Context) ([]collector.Job, error) {
	tickers, err := j.lister.ListTickers(ctx, j.markets)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	out := make([]collector.Job, 0, len(tickers)+len(j.indices))
	markets := j.markets
	if len(markets) == 0 {
		for m := range j.indices {
			markets = append(markets, m)
		}
		sort.Strings(markets)
	}
	for _, m := range markets {
		if idx, ok := j.indices[m]; ok {
			out = append(out, collector.Job{Symbol: idx, IsIndex: true})
		}
	}
	for _, t := range tickers {
		out = append(out, collector.Job{Symbol: t})
	}
	return out, nil
}

// Run executes the sync
func (j *DataSyncJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled data sync")

	jobs, err := j.Jobs(ctx)
	if err != nil {
		return err
	}

	cfg := collector.Config{Workers: j.workers}
	if j.window > 0 {
		cfg.From = time.Now().Add(-j.window)
	}
	results, err := j.collector.Sync(ctx, jobs, cfg)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	failed, lowQuality := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
		if r.Quality != nil && !r.Quality.Passed {
			lowQuality++
		}
	}
	// 전부 실패한 경우만 재시도 대상
	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("all %d symbols failed to sync", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols":     len(results),
		"failed":      failed,
		"low_quality": lowQuality,
	}).Info("Scheduled data sync completed")
	return nil
}
