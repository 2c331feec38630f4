package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/brain"
	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/internal/s0_data/collector"
	"github.com/wonny/stox/backend/internal/s3_dataset"
	"github.com/wonny/stox/backend/pkg/logger"
)

type memoryWriter struct {
	mu    sync.Mutex
	saved map[contracts.Symbol]bool
}

func (w *memoryWriter) SaveBatch(_ context.Context, series *contracts.RawSeries, isIndex bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saved[series.Symbol] = isIndex
	return nil
}

func TestDataSyncJob(t *testing.T) {
	src := s0_data.NewMockSource(50, 1)
	w := &memoryWriter{saved: make(map[contracts.Symbol]bool)}
	col := collector.NewCollector(src, w, logger.Nop())

	job := NewDataSyncJob(col, src, s0_data.DefaultIndices, []string{s0_data.MockMarket}, 0, 2, logger.Nop())
	assert.Equal(t, "data_sync", job.Name())

	jobs, err := job.Jobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.True(t, jobs[0].IsIndex)

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, w.saved, 3)
	assert.True(t, w.saved[contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockIndex}])
	assert.False(t, w.saved[contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockEasy}])
}

func TestMemoPurgeJob(t *testing.T) {
	memo, err := s0_data.NewMemoSource(s0_data.NewMockSource(30, 1), 4)
	require.NoError(t, err)
	_, err = memo.Fetch(context.Background(), contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockEasy}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, memo.Len())

	job := NewMemoPurgeJob(memo, logger.Nop())
	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, memo.Len())
}

func TestDatasetJob(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping pipeline run in short mode")
	}
	src := s0_data.NewMockSource(700, 3)
	log := logger.Nop()
	agg := s3_dataset.NewAggregator(s3_dataset.NewTickerBuilder(src, log), src, s0_data.NewStaticIndexResolver(nil), 2, log, nil)
	store := brain.NewStore(1)

	p := profile.Default()
	p.Dataset.Lookback = 10
	p.Universe.Markets = []string{s0_data.MockMarket}

	job := NewDatasetJob(brain.NewOrchestrator(agg, src, store, log), p, nil, "0 30 18 * * 1-5", log)
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())
	require.NoError(t, job.Run(context.Background()))

	require.NotNil(t, store.Latest())
	assert.NotNil(t, store.Latest().Evaluation)
}
