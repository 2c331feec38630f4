package s0_data

import (
	"sort"

	"github.com/wonny/stox/backend/internal/contracts"
)

// DefaultIndices maps each market to its broad benchmark index
var DefaultIndices = map[string]contracts.Symbol{
	"AU":       {Market: "AU", Ticker: "XAO"},
	"US":       {Market: "US", Ticker: "SPX"},
	MockMarket: {Market: MockMarket, Ticker: MockIndex},
}

// StaticIndexResolver resolves indices from a fixed table
type StaticIndexResolver struct {
	indices map[string]contracts.Symbol
}

// NewStaticIndexResolver copies the given table. Nil uses DefaultIndices.
func NewStaticIndexResolver(indices map[string]contracts.Symbol) *StaticIndexResolver {
	if indices == nil {
		indices = DefaultIndices
	}
	copied := make(map[string]contracts.Symbol, len(indices))
	for k, v := range indices {
		copied[k] = v
	}
	return &StaticIndexResolver{indices: copied}
}

// IndexFor implements contracts.IndexResolver
func (r *StaticIndexResolver) IndexFor(market string) (contracts.Symbol, bool) {
	s, ok := r.indices[market]
	return s, ok
}

// Markets lists the configured markets, sorted
func (r *StaticIndexResolver) Markets() []string {
	out := make([]string, 0, len(r.indices))
	for m := range r.indices {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
