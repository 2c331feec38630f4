package s2_features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatHistory returns n neutral candles of body 1 and range 2
func flatHistory(n int) (o, h, l, c []float64) {
	for i := 0; i < n; i++ {
		base := 100.0
		o = append(o, base)
		c = append(c, base+1)
		h = append(h, base+1.5)
		l = append(l, base-0.5)
	}
	return
}

func patternByName(t *testing.T, name string) Pattern {
	t.Helper()
	for _, p := range Patterns {
		if p.Name == name {
			return p
		}
	}
	require.FailNow(t, "pattern not registered", name)
	return Pattern{}
}

func TestPatterns_Engulfing(t *testing.T) {
	o, h, l, c := flatHistory(20)
	// bearish bar then a bullish bar engulfing it
	o = append(o, 101, 99.5)
	c = append(c, 100, 101.5)
	h = append(h, 101.2, 101.7)
	l = append(l, 99.8, 99.3)
	v := make([]float64, len(o))

	s := seriesOf(o, h, l, c, v)
	out := DetectPattern(s, patternByName(t, "CDLENGULFING"))

	assert.Equal(t, 100.0, out[len(out)-1])
	assert.Equal(t, 0.0, out[len(out)-2])
}

func TestPatterns_Doji(t *testing.T) {
	o, h, l, c := flatHistory(20)
	o = append(o, 100)
	c = append(c, 100.05)
	h = append(h, 101)
	l = append(l, 99)
	v := make([]float64, len(o))

	out := DetectPattern(seriesOf(o, h, l, c, v), patternByName(t, "CDLDOJI"))
	assert.Equal(t, 100.0, out[20])
	assert.Equal(t, 0.0, out[19])
}

func TestPatterns_WarmupIsNaNAndValuesBounded(t *testing.T) {
	s := randomSeries(80, 11)
	for _, p := range Patterns {
		out := DetectPattern(s, p)
		require.Len(t, out, 80, p.Name)
		for i := 0; i < patternWarmup; i++ {
			assert.True(t, out[i] != out[i], "%s warmup row %d should be NaN", p.Name, i)
		}
		for i := patternWarmup; i < len(out); i++ {
			assert.Contains(t, []float64{-100, 0, 100}, out[i], p.Name)
		}
	}
}

func TestPatterns_UniqueNames(t *testing.T) {
	assert.GreaterOrEqual(t, len(Patterns), 61)
	seen := map[string]bool{}
	for _, p := range Patterns {
		assert.False(t, seen[p.Name], p.Name)
		seen[p.Name] = true
		assert.GreaterOrEqual(t, p.Bars, 1)
		assert.LessOrEqual(t, p.Bars, 5)
		assert.LessOrEqual(t, patternAvgPeriod+p.Bars-1, patternWarmup, p.Name)
	}
}

func TestPatterns_Hikkake(t *testing.T) {
	o, h, l, c := flatHistory(20)
	// wide bar, inside bar, false breakdown
	o = append(o, 100, 100.2, 100)
	c = append(c, 101, 100.8, 99.8)
	h = append(h, 102, 101, 100.5)
	l = append(l, 99, 99.5, 99)
	v := make([]float64, len(o))

	out := DetectPattern(seriesOf(o, h, l, c, v), patternByName(t, "CDLHIKKAKE"))
	assert.Equal(t, 100.0, out[len(out)-1])
	assert.Equal(t, 0.0, out[len(out)-2])
}

func TestPatterns_TriStar(t *testing.T) {
	o, h, l, c := flatHistory(20)
	// three dojis, the middle one gapped below the others
	o = append(o, 100, 98, 100)
	c = append(c, 100.05, 98.05, 100.05)
	h = append(h, 100.5, 98.5, 100.5)
	l = append(l, 99.5, 97.5, 99.5)
	v := make([]float64, len(o))

	out := DetectPattern(seriesOf(o, h, l, c, v), patternByName(t, "CDLTRISTAR"))
	assert.Equal(t, 100.0, out[len(out)-1])
	assert.Equal(t, 0.0, out[len(out)-2])
}
