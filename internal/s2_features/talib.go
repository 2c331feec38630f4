package s2_features

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/stox/backend/internal/contracts"
)

// Unstable leading rows of the talib-backed indicators
const (
	htTrendModeLookback = 63
	mfiPeriod           = 14
)

// leadingNaN overwrites the first lookback values, which talib leaves as zero
func leadingNaN(out []float64, lookback int) []float64 {
	for t := 0; t < lookback && t < len(out); t++ {
		out[t] = math.NaN()
	}
	return out
}

// TrendMode is the Hilbert transform trend-vs-cycle flag of price (1 trending, 0 cycling)
func TrendMode(s *contracts.CleanedSeries) []float64 {
	n := s.Len()
	if n <= htTrendModeLookback {
		return nanSlice(n)
	}
	return leadingNaN(talib.HtTrendMode(s.Price), htTrendModeLookback)
}

// MFI is the money flow index over 14 bars
func MFI(s *contracts.CleanedSeries) []float64 {
	n := s.Len()
	if n <= mfiPeriod {
		return nanSlice(n)
	}
	return leadingNaN(talib.Mfi(s.High, s.Low, s.Close, s.Volume, mfiPeriod), mfiPeriod)
}

// BOP is the balance of power (close-open)/(high-low); 0 on a flat bar
func BOP(s *contracts.CleanedSeries) []float64 {
	if s.Len() == 0 {
		return []float64{}
	}
	return talib.Bop(s.Open, s.High, s.Low, s.Close)
}
