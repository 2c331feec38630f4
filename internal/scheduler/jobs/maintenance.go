package jobs

import (
	"context"

	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/pkg/logger"
)

// MemoPurgeJob drops memoized series so the next build sees fresh bars
type MemoPurgeJob struct {
	memo   *s0_data.MemoSource
	logger *logger.Logger
}

// NewMemoPurgeJob creates a new memo purge job
func NewMemoPurgeJob(memo *s0_data.MemoSource, log *logger.Logger) *MemoPurgeJob {
	return &MemoPurgeJob{
		memo:   memo,
		logger: log,
	}
}

// Name returns the job name
func (j *MemoPurgeJob) Name() string {
	return "memo_purge"
}

// Schedule returns the cron schedule (after the data sync)
func (j *MemoPurgeJob) Schedule() string {
	return "0 20 18 * * 1-5"
}

// Run executes the purge
func (j *MemoPurgeJob) Run(ctx context.Context) error {
	count := j.memo.Len()
	j.memo.Purge()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Series memo purged")
	}

	return nil
}
