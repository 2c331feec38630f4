package s2_features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/stox/backend/internal/contracts"
)

// Indicator computes one column over a cleaned series with a window length.
// Value t may only read rows <= t.
type Indicator func(s *contracts.CleanedSeries, window int) []float64

// AroonOsc is aroon-up minus aroon-down over p+1 bars
func AroonOsc(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	for t := p; t < n; t++ {
		hi := highestIdx(s.High, t-p, t)
		lo := lowestIdx(s.Low, t-p, t)
		up := 100 * float64(p-(t-hi)) / float64(p)
		down := 100 * float64(p-(t-lo)) / float64(p)
		out[t] = up - down
	}
	return out
}

// ATRNorm is the Wilder average true range divided by price
func ATRNorm(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	if n <= p {
		return out
	}
	tr := trueRange(s.High, s.Low, s.Close)

	atr := stat.Mean(tr[1:p+1], nil)
	out[p] = safeDiv(atr, s.Price[p])
	for t := p + 1; t < n; t++ {
		atr = (atr*float64(p-1) + tr[t]) / float64(p)
		out[t] = safeDiv(atr, s.Price[t])
	}
	return out
}

// Correl is the Pearson correlation of high and low over p bars; 0 when degenerate
func Correl(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	for t := p - 1; t < n; t++ {
		x := s.High[t-p+1 : t+1]
		y := s.Low[t-p+1 : t+1]
		if stat.Variance(x, nil) <= 1e-18 || stat.Variance(y, nil) <= 1e-18 {
			out[t] = 0
			continue
		}
		out[t] = stat.Correlation(x, y, nil)
	}
	return out
}

// Beta regresses low returns on high returns over p returns; 0 when degenerate
func Beta(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	if n <= p {
		return out
	}
	xr := make([]float64, n)
	yr := make([]float64, n)
	for t := 1; t < n; t++ {
		xr[t] = safeDiv(s.High[t]-s.High[t-1], s.High[t-1])
		yr[t] = safeDiv(s.Low[t]-s.Low[t-1], s.Low[t-1])
	}
	for t := p; t < n; t++ {
		x := xr[t-p+1 : t+1]
		y := yr[t-p+1 : t+1]
		if stat.Variance(x, nil) <= 1e-18 {
			out[t] = 0
			continue
		}
		_, beta := stat.LinearRegression(x, y, nil, false)
		out[t] = beta
	}
	return out
}

// CMO is the Chande momentum oscillator of close over p changes
func CMO(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	for t := p; t < n; t++ {
		var up, down float64
		for i := t - p + 1; i <= t; i++ {
			d := s.Close[i] - s.Close[i-1]
			if d > 0 {
				up += d
			} else {
				down -= d
			}
		}
		out[t] = 100 * safeDiv(up-down, up+down)
	}
	return out
}

// CCI is the commodity channel index of the typical price
func CCI(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	tp := make([]float64, n)
	for t := range tp {
		tp[t] = (s.High[t] + s.Low[t] + s.Close[t]) / 3
	}
	for t := p - 1; t < n; t++ {
		w := tp[t-p+1 : t+1]
		mean := stat.Mean(w, nil)
		var dev float64
		for _, v := range w {
			dev += math.Abs(v - mean)
		}
		dev /= float64(p)
		out[t] = safeDiv(tp[t]-mean, 0.015*dev)
	}
	return out
}

// SlopePrice is the regression slope of price over p rows, in percent of current price
func SlopePrice(s *contracts.CleanedSeries, p int) []float64 {
	slope := LinearRegSlope(s.Price, p)
	for t, v := range slope {
		if !math.IsNaN(v) {
			slope[t] = 100 * safeDiv(v, s.Price[t])
		}
	}
	return slope
}

// SlopeVolume is the regression slope of volume over p rows relative to the window mean
func SlopeVolume(s *contracts.CleanedSeries, p int) []float64 {
	slope := LinearRegSlope(s.Volume, p)
	mean := SMA(s.Volume, p)
	for t, v := range slope {
		if !math.IsNaN(v) {
			slope[t] = safeDiv(v, mean[t])
		}
	}
	return slope
}

// fastK is the raw stochastic %K over p bars
func fastK(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	for t := p - 1; t < n; t++ {
		hh := s.High[highestIdx(s.High, t-p+1, t)]
		ll := s.Low[lowestIdx(s.Low, t-p+1, t)]
		out[t] = 100 * safeDiv(s.Close[t]-ll, hh-ll)
	}
	return out
}

// stochSmoothing is the slow-K/slow-D period for a %K window
func stochSmoothing(p int) int {
	return max(1, RoundHalfEven(float64(p)*3/5))
}

// StochFastK is the fast stochastic %K
func StochFastK(s *contracts.CleanedSeries, p int) []float64 {
	return fastK(s, p)
}

// StochSlowK smooths %K with an SMA of round(p*3/5)
func StochSlowK(s *contracts.CleanedSeries, p int) []float64 {
	return SMA(fastK(s, p), stochSmoothing(p))
}

// StochSlowD smooths slow %K again
func StochSlowD(s *contracts.CleanedSeries, p int) []float64 {
	k := stochSmoothing(p)
	return SMA(SMA(fastK(s, p), k), k)
}

// UltOsc is the ultimate oscillator over round(p/3), round(p/2) and p bars
func UltOsc(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	p1 := max(1, RoundHalfEven(float64(p)/3))
	p2 := max(1, RoundHalfEven(float64(p)/2))
	p3 := p

	bp := make([]float64, n)
	tr := make([]float64, n)
	for t := 1; t < n; t++ {
		trueLow := math.Min(s.Low[t], s.Close[t-1])
		bp[t] = s.Close[t] - trueLow
		tr[t] = math.Max(s.High[t], s.Close[t-1]) - trueLow
	}
	sums := func(q int) ([]float64, []float64) {
		return rollingSum(bp, q), rollingSum(tr, q)
	}
	b1, r1 := sums(p1)
	b2, r2 := sums(p2)
	b3, r3 := sums(p3)
	for t := p3; t < n; t++ {
		out[t] = 100 * (4*safeDiv(b1[t], r1[t]) + 2*safeDiv(b2[t], r2[t]) + safeDiv(b3[t], r3[t])) / 7
	}
	return out
}

// ADOsc is the Chaikin oscillator: EMA(fast) - EMA(p) of the accumulation/distribution line
func ADOsc(s *contracts.CleanedSeries, p int) []float64 {
	n := s.Len()
	out := nanSlice(n)
	fast := max(1, RoundHalfEven(float64(p)*3/10))

	ad := make([]float64, n)
	var acc float64
	for t := 0; t < n; t++ {
		clv := safeDiv((s.Close[t]-s.Low[t])-(s.High[t]-s.Close[t]), s.High[t]-s.Low[t])
		acc += clv * s.Volume[t]
		ad[t] = acc
	}
	fe := EMA(ad, fast)
	se := EMA(ad, p)
	for t := p - 1; t < n; t++ {
		out[t] = fe[t] - se[t]
	}
	return out
}

