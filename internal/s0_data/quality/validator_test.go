package quality

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/stox/backend/internal/contracts"
)

func series(bars ...contracts.Bar) *contracts.RawSeries {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i].Date = day.AddDate(0, 0, i)
	}
	return &contracts.RawSeries{Symbol: contracts.Symbol{Market: "US", Ticker: "AAPL"}, Bars: bars}
}

func TestQualityGate_Check(t *testing.T) {
	nan := math.NaN()
	full := contracts.Bar{Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000}

	tests := []struct {
		name      string
		series    *contracts.RawSeries
		passed    bool
		failures  []string
		wantPrice float64
	}{
		{
			name:      "complete",
			series:    series(full, full, full, full),
			passed:    true,
			wantPrice: 1,
		},
		{
			name:      "missing closes",
			series:    series(full, contracts.Bar{Open: 1, High: 1, Low: 1, Close: nan, Volume: 5}, full, full),
			passed:    false,
			failures:  []string{"price", "ohlc"},
			wantPrice: 0.75,
		},
		{
			name:      "zero volume",
			series:    series(full, contracts.Bar{Open: 1, High: 1, Low: 1, Close: 1, Volume: 0}, contracts.Bar{Open: 1, High: 1, Low: 1, Close: 1, Volume: 0}, full),
			passed:    false,
			failures:  []string{"volume"},
			wantPrice: 1,
		},
		{
			name:     "empty",
			series:   series(),
			passed:   false,
			failures: []string{"bars", "price", "volume", "ohlc"},
		},
	}

	gate := NewQualityGate(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := gate.Check(tt.series)

			assert.Equal(t, tt.passed, snap.Passed)
			assert.Equal(t, tt.failures, snap.Failures)
			assert.InDelta(t, tt.wantPrice, snap.Coverage["price"], 1e-9)
			assert.GreaterOrEqual(t, snap.QualityScore, 0.0)
			assert.LessOrEqual(t, snap.QualityScore, 1.0)
		})
	}
}

func TestCalculateScore(t *testing.T) {
	score := calculateScore(map[string]float64{"price": 1, "volume": 0.5, "ohlc": 0})
	assert.InDelta(t, 0.65, score, 1e-9)
}
