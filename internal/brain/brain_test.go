package brain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/internal/s3_dataset"
	"github.com/wonny/stox/backend/pkg/logger"
)

func mockProfile() *profile.Profile {
	p := profile.Default()
	p.Dataset.Lookback = 10
	p.Universe.Markets = []string{s0_data.MockMarket}
	return p
}

func newOrchestrator(store *Store) *Orchestrator {
	src := s0_data.NewMockSource(900, 2)
	log := logger.Nop()
	agg := s3_dataset.NewAggregator(s3_dataset.NewTickerBuilder(src, log), src, s0_data.NewStaticIndexResolver(nil), 2, log, nil)
	return NewOrchestrator(agg, src, store, log)
}

func TestOrchestrator_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping pipeline run in short mode")
	}
	store := NewStore(2)
	o := newOrchestrator(store)

	res, err := o.Run(context.Background(), RunConfig{Profile: mockProfile(), Evaluate: true})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"universe", "dataset", "evaluate", "publish"}, res.CompletedStages)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, res.RunID, res.Snapshot.Meta.RunID)
	assert.Len(t, res.Snapshot.Dataset.Report.Built, 2)
	require.NotNil(t, res.Snapshot.Evaluation)

	assert.Same(t, res.Snapshot, store.Latest())
	got, ok := store.Get(res.RunID)
	assert.True(t, ok)
	assert.Same(t, res.Snapshot, got)
}

func TestOrchestrator_ExplicitTickers(t *testing.T) {
	p := mockProfile()
	p.Universe.Tickers = []string{"_MOCK_EASY[MOCK]"}

	res, err := newOrchestrator(NewStore(1)).Run(context.Background(), RunConfig{Profile: p})
	require.NoError(t, err)
	assert.Equal(t, []string{"_MOCK_EASY[MOCK]"}, res.Snapshot.Dataset.Report.Built)
	assert.Nil(t, res.Snapshot.Evaluation)
}

func TestOrchestrator_NoLister(t *testing.T) {
	src := s0_data.NewMockSource(100, 1)
	log := logger.Nop()
	agg := s3_dataset.NewAggregator(s3_dataset.NewTickerBuilder(src, log), src, s0_data.NewStaticIndexResolver(nil), 1, log, nil)
	o := NewOrchestrator(agg, nil, NewStore(1), log)

	res, err := o.Run(context.Background(), RunConfig{Profile: mockProfile()})
	assert.Error(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.CompletedStages)
}

func TestStore_EvictsOldest(t *testing.T) {
	s := NewStore(2)
	assert.Nil(t, s.Latest())

	for _, id := range []string{"a", "b", "c"} {
		s.Put(&Snapshot{Meta: profile.Snapshot{RunID: id}, Dataset: &contracts.Dataset{}})
	}

	assert.Equal(t, "c", s.Latest().Meta.RunID)
	assert.Equal(t, []string{"b", "c"}, s.RunIDs())
	_, ok := s.Get("a")
	assert.False(t, ok)
}
