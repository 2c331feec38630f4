package s0_data

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
)

// Mock symbols. They live in their own market so they never mix with real data.
const (
	MockMarket = "MOCK"
	MockEasy   = "_MOCK_EASY"
	MockHard   = "_MOCK_HARD"
	MockIndex  = "_MOCK_INDEX"
)

// DefaultMockLength is the number of daily bars per mock series
const DefaultMockLength = 20000

var mockEpoch = time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)

// MockSource generates deterministic synthetic series.
// EASY rises linearly and is trivially predictable; HARD is a gaussian walk.
type MockSource struct {
	Length int
	Seed   uint64
}

// NewMockSource creates a mock source with the given series length and HARD seed
func NewMockSource(length int, seed uint64) *MockSource {
	return &MockSource{Length: length, Seed: seed}
}

// Fetch implements contracts.SeriesSource. Unknown symbols yield an empty series.
func (m *MockSource) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bars []contracts.Bar
	if symbol.Market == MockMarket {
		switch symbol.Ticker {
		case MockEasy:
			bars = easyBars(m.Length, 1)
		case MockIndex:
			bars = easyBars(m.Length, 1000)
		case MockHard:
			bars = hardBars(m.Length, m.Seed)
		}
	}

	series := &contracts.RawSeries{Symbol: symbol}
	for _, b := range bars {
		if !b.Date.Before(from) {
			series.Bars = append(series.Bars, b)
		}
	}
	return series, nil
}

// ListTickers implements contracts.TickerLister
func (m *MockSource) ListTickers(_ context.Context, markets []string) ([]contracts.Symbol, error) {
	if len(markets) > 0 && !containsString(markets, MockMarket) {
		return nil, nil
	}
	return []contracts.Symbol{
		{Market: MockMarket, Ticker: MockEasy},
		{Market: MockMarket, Ticker: MockHard},
	}, nil
}

// easyBars: open rises by 1/1000 per day, close 1% above open
func easyBars(n int, scale float64) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	for i := range bars {
		o := float64(i+1) / 1000 * scale
		c := o * 1.01
		bars[i] = contracts.Bar{
			Date:   mockEpoch.AddDate(0, 0, i),
			Open:   o,
			High:   o * 1.005,
			Low:    o * 0.995,
			Close:  c,
			Volume: float64(int(c * 1000 / scale)),
		}
	}
	return bars
}

// hardBars: each open is a gaussian step from the previous close
func hardBars(n int, seed uint64) []contracts.Bar {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	gauss := func(mu, sigma float64) float64 { return mu + sigma*rng.NormFloat64() }

	bars := make([]contracts.Bar, n)
	oldClose := 100000.0
	for i := range bars {
		o := oldClose * gauss(1, 0.04)
		c := o * gauss(1, 0.04)
		var h, l float64
		if o > c {
			h = o * gauss(1.04, 0.039)
			l = c * gauss(0.96, 0.039)
		} else {
			h = c * gauss(1.04, 0.039)
			l = o * gauss(0.96, 0.039)
		}
		bars[i] = contracts.Bar{
			Date:   mockEpoch.AddDate(0, 0, i),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: float64(100 + rng.IntN(1000000-100+1)),
		}
		oldClose = c
	}
	return bars
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
