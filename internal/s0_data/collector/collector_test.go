package collector

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/internal/s0_data/quality"
	"github.com/wonny/stox/backend/pkg/database"
	"github.com/wonny/stox/backend/pkg/logger"
)

type failingSource struct{}

func (failingSource) Fetch(context.Context, contracts.Symbol, time.Time) (*contracts.RawSeries, error) {
	return nil, errors.New("backend down")
}

func TestCollector_SyncMockIntoSQLite(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "stox.db"))
	require.NoError(t, err)
	defer db.Close()
	store := s0_data.NewSQLiteRepository(db)

	c := NewCollector(s0_data.NewMockSource(40, 3), store, logger.Nop())
	jobs := []Job{
		{Symbol: contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockEasy}},
		{Symbol: contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockHard}},
		{Symbol: contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockIndex}, IsIndex: true},
	}

	results, err := c.Sync(context.Background(), jobs, Config{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Error)
		assert.Equal(t, 40, r.BarCount)
	}

	tickers, err := store.ListTickers(context.Background(), nil)
	require.NoError(t, err)
	sort.Slice(tickers, func(i, j int) bool { return tickers[i].Ticker < tickers[j].Ticker })
	assert.Len(t, tickers, 2)

	indices, err := store.ListIndices(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, indices, 1)
}

func TestCollector_FailuresReportedPerSymbol(t *testing.T) {
	c := NewCollector(failingSource{}, nil, logger.Nop())
	results, err := c.Sync(context.Background(), []Job{{Symbol: contracts.Symbol{Market: "AU", Ticker: "BHP"}}}, Config{Workers: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Error)

	_, err = c.Sync(context.Background(), nil, Config{Workers: 0})
	assert.Error(t, err)
}

func TestCollector_QualityGate(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "stox.db"))
	require.NoError(t, err)
	defer db.Close()

	c := NewCollector(s0_data.NewMockSource(40, 3), s0_data.NewSQLiteRepository(db), logger.Nop()).
		WithQualityGate(quality.NewQualityGate(quality.DefaultConfig()))

	results, err := c.Sync(context.Background(), []Job{
		{Symbol: contracts.Symbol{Market: s0_data.MockMarket, Ticker: s0_data.MockEasy}},
	}, Config{Workers: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Quality)
	assert.True(t, results[0].Quality.Passed)
	assert.InDelta(t, 1.0, results[0].Quality.QualityScore, 1e-9)
}
