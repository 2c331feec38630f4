package brain

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/internal/s4_evaluate"
)

// DefaultHistory is the number of past runs kept in memory
const DefaultHistory = 8

// Snapshot is one published pipeline run
type Snapshot struct {
	Meta       profile.Snapshot     `json:"meta"`
	Dataset    *contracts.Dataset   `json:"-"`
	Evaluation *s4_evaluate.Report `json:"evaluation,omitempty"`
}

// Store holds the latest snapshot and a bounded history by run ID.
// Snapshots are immutable once published.
type Store struct {
	mu      sync.RWMutex
	latest  *Snapshot
	history *lru.Cache[string, *Snapshot]
}

// NewStore creates a store keeping up to size runs
func NewStore(size int) *Store {
	if size < 1 {
		size = DefaultHistory
	}
	history, _ := lru.New[string, *Snapshot](size) // size > 0 never errors
	return &Store{history: history}
}

// Put publishes a snapshot as the latest run
func (s *Store) Put(snap *Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
	s.history.Add(snap.Meta.RunID, snap)
}

// Latest returns the most recent snapshot or nil
func (s *Store) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Get returns a snapshot by run ID
func (s *Store) Get(runID string) (*Snapshot, bool) {
	return s.history.Get(runID)
}

// RunIDs lists retained run IDs, oldest first
func (s *Store) RunIDs() []string {
	return s.history.Keys()
}
