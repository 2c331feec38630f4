package s2_features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// RoundHalfEven rounds to the nearest integer, ties to even
func RoundHalfEven(x float64) int {
	return int(math.RoundToEven(x))
}

func windowHasNaN(w []float64) bool {
	for _, v := range w {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// SMA is the simple moving average; NaN until p values are available
func SMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p < 1 {
		return out
	}
	for t := p - 1; t < len(x); t++ {
		w := x[t-p+1 : t+1]
		if windowHasNaN(w) {
			continue
		}
		out[t] = stat.Mean(w, nil)
	}
	return out
}

// EMA seeded with the first defined value
func EMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	k := 2 / (float64(p) + 1)
	prev := math.NaN()
	for t, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = prev + k*(v-prev)
		}
		out[t] = prev
	}
	return out
}

// rollingSum over p values
func rollingSum(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	for t := p - 1; t >= 0 && t < len(x); t++ {
		out[t] = floats.Sum(x[t-p+1 : t+1])
	}
	return out
}

// LinearRegSlope is the least-squares slope of x over the last p rows (x-axis 0..p-1)
func LinearRegSlope(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p < 2 {
		return out
	}
	axis := make([]float64, p)
	for i := range axis {
		axis[i] = float64(i)
	}
	for t := p - 1; t < len(x); t++ {
		w := x[t-p+1 : t+1]
		if windowHasNaN(w) {
			continue
		}
		_, beta := stat.LinearRegression(axis, w, nil, false)
		out[t] = beta
	}
	return out
}

// Shift moves values k rows later (lag); leading rows become NaN
func Shift(x []float64, k int) []float64 {
	out := nanSlice(len(x))
	for t := k; t < len(x); t++ {
		out[t] = x[t-k]
	}
	return out
}

// highestIdx/lowestIdx return the most recent index of the extreme within [from, to]
func highestIdx(x []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if x[i] >= x[best] {
			best = i
		}
	}
	return best
}

func lowestIdx(x []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if x[i] <= x[best] {
			best = i
		}
	}
	return best
}

// trueRange is undefined on the first row
func trueRange(high, low, close []float64) []float64 {
	out := nanSlice(len(close))
	for t := 1; t < len(close); t++ {
		out[t] = math.Max(high[t]-low[t], math.Max(math.Abs(high[t]-close[t-1]), math.Abs(low[t]-close[t-1])))
	}
	return out
}

func safeDiv(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den
}
