package s0_data

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/metrics"
)

// ThrottledSource limits fetch rate against a shared backend
type ThrottledSource struct {
	inner   contracts.SeriesSource
	limiter *rate.Limiter
}

// NewThrottledSource allows perSecond fetches with a burst of one second's worth.
// perSecond <= 0 disables throttling.
func NewThrottledSource(inner contracts.SeriesSource, perSecond float64) *ThrottledSource {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &ThrottledSource{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

// Fetch implements contracts.SeriesSource
func (s *ThrottledSource) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait for %s: %v", contracts.ErrSourceFetch, symbol, err)
	}
	return s.inner.Fetch(ctx, symbol, from)
}

// MeteredSource records fetch latency per source name
type MeteredSource struct {
	inner    contracts.SeriesSource
	name     string
	recorder *metrics.Recorder
}

// NewMeteredSource wraps inner with latency metrics
func NewMeteredSource(inner contracts.SeriesSource, name string, recorder *metrics.Recorder) *MeteredSource {
	return &MeteredSource{inner: inner, name: name, recorder: recorder}
}

// Fetch implements contracts.SeriesSource
func (s *MeteredSource) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	start := time.Now()
	series, err := s.inner.Fetch(ctx, symbol, from)
	s.recorder.ObserveFetch(s.name, time.Since(start))
	return series, err
}
