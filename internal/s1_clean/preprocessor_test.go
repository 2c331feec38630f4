package s1_clean

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
)

var sym = contracts.Symbol{Market: "AU", Ticker: "TST"}

// 2024-01-01 is a Monday
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(d time.Time, o, h, l, c, v float64) contracts.Bar {
	return contracts.Bar{Date: d, Open: o, High: h, Low: l, Close: c, Volume: v}
}

// weekdays builds n business-day bars starting at start with rising prices
func weekdays(start time.Time, n int) []contracts.Bar {
	var bars []contracts.Bar
	d := start
	for len(bars) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			p := 10 + float64(len(bars))
			bars = append(bars, bar(d, p, p+1, p-1, p+0.5, 1000))
		}
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

func newPreprocessor() *Preprocessor {
	return NewPreprocessor(logger.Nop())
}

func TestPreprocess_ContiguousIncreasingGrid(t *testing.T) {
	raw := &contracts.RawSeries{Symbol: sym, Bars: weekdays(monday, 30)}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 5, Imputate: true})
	require.NoError(t, err)

	for i := 1; i < out.Len(); i++ {
		assert.Equal(t, out.Dates[i-1].AddDate(0, 0, 1), out.Dates[i], "row %d", i)
	}
	for i := 0; i < out.Len(); i++ {
		assert.False(t, out.HasNaNOHLC(i))
		assert.False(t, math.IsNaN(out.PC[i]))
	}
	// first raw row is consumed by pc
	assert.Equal(t, monday.AddDate(0, 0, 1), out.Dates[0])
}

func TestPreprocess_WeekendPaddingHasZeroVolume(t *testing.T) {
	raw := &contracts.RawSeries{Symbol: sym, Bars: weekdays(monday, 10)}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 2, Imputate: true})
	require.NoError(t, err)

	friday := monday.AddDate(0, 0, 4)
	for i, d := range out.Dates {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			assert.Zero(t, out.Volume[i], d.Format("Mon 2006-01-02"))
			if d.Before(monday.AddDate(0, 0, 7)) {
				assert.Equal(t, raw.Bars[4].Close, out.Close[i], "forward-filled from %s", friday.Format("Mon"))
			}
		default:
			assert.Equal(t, 1000.0, out.Volume[i])
		}
	}
}

func TestPreprocess_GapTruncation(t *testing.T) {
	pre := weekdays(monday, 20)
	post := weekdays(pre[len(pre)-1].Date.AddDate(0, 0, 400), 20)
	raw := &contracts.RawSeries{Symbol: sym, Bars: append(append([]contracts.Bar{}, pre...), post...)}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 5, Imputate: true})
	require.NoError(t, err)

	for _, d := range out.Dates {
		assert.False(t, d.Before(post[0].Date), "row %s predates the gap", d.Format("2006-01-02"))
	}
	assert.Equal(t, post[len(post)-1].Date, out.Dates[out.Len()-1])
}

func TestPreprocess_ShortGapKept(t *testing.T) {
	pre := weekdays(monday, 10)
	post := weekdays(pre[len(pre)-1].Date.AddDate(0, 0, 300), 10)
	raw := &contracts.RawSeries{Symbol: sym, Bars: append(append([]contracts.Bar{}, pre...), post...)}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 5})
	require.NoError(t, err)
	assert.Equal(t, pre[1].Date, out.Dates[0])
}

func TestPreprocess_Imputation(t *testing.T) {
	bars := weekdays(monday, 6)
	bars[2].Open = 0
	bars[3].High = math.NaN()
	bars[4].Low = 0
	raw := &contracts.RawSeries{Symbol: sym, Bars: bars}
	orig := append([]contracts.Bar{}, bars...)

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 2, Imputate: true})
	require.NoError(t, err)

	at := func(d time.Time) int {
		for i, x := range out.Dates {
			if x.Equal(d) {
				return i
			}
		}
		t.Fatalf("date %s missing", d)
		return -1
	}

	i2 := at(bars[2].Date)
	assert.Equal(t, bars[1].Close, out.Open[i2])

	i3 := at(bars[3].Date)
	assert.Equal(t, math.Max(bars[3].Open, bars[3].Close), out.High[i3])

	i4 := at(bars[4].Date)
	assert.Equal(t, math.Min(bars[4].Open, bars[4].Close), out.Low[i4])

	// raw input untouched
	assert.Equal(t, 0.0, raw.Bars[2].Open)
	assert.Equal(t, orig[0], raw.Bars[0])
}

func TestPreprocess_MissingFirstOpenDropsRow(t *testing.T) {
	var bars []contracts.Bar
	for _, b := range weekdays(monday, 8) {
		bars = append(bars, bar(b.Date, 10, 10, 10, 10, 1000))
	}
	bars[0].Open = 0
	raw := &contracts.RawSeries{Symbol: sym, Bars: bars}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 2, Imputate: true})
	require.NoError(t, err)
	require.NotZero(t, out.Len())

	assert.True(t, out.Dates[0].After(bars[0].Date))
	for i := range out.PC {
		assert.NotEqual(t, 100.0, out.PC[i], "row %d", i)
		assert.InDelta(t, 0.0, out.PC[i], 1e-12, "row %d", i)
	}
}

func TestPreprocess_NaNCloseBecomesPaddedDay(t *testing.T) {
	bars := weekdays(monday, 6)
	bars[2].Close = math.NaN()
	raw := &contracts.RawSeries{Symbol: sym, Bars: bars}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 2, Imputate: true})
	require.NoError(t, err)

	for i, d := range out.Dates {
		if d.Equal(bars[2].Date) {
			assert.Equal(t, bars[1].Close, out.Close[i])
			assert.Zero(t, out.Volume[i])
		}
	}
}

func TestPreprocess_DerivedFields(t *testing.T) {
	raw := &contracts.RawSeries{Symbol: sym, Bars: []contracts.Bar{
		bar(monday, 10, 12, 9, 11, 100),
		bar(monday.AddDate(0, 0, 1), 11, 13, 10, 12, 100),
	}}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 1})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	assert.InDelta(t, 11.5, out.Price[0], 1e-12)
	assert.InDelta(t, 0.0, out.Gap[0], 1e-12)
	assert.InDelta(t, 3.0, out.Spread[0], 1e-12)
	assert.InDelta(t, (11.5/10.5-1)*100, out.PC[0], 1e-12)
}

func TestPreprocess_InsufficientHistory(t *testing.T) {
	raw := &contracts.RawSeries{Symbol: sym, Bars: weekdays(monday, 3)}

	_, err := newPreprocessor().Preprocess(raw, Options{Lookback: 10})
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = newPreprocessor().Preprocess(&contracts.RawSeries{Symbol: sym}, Options{Lookback: 1})
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestPreprocess_RejectsUnorderedInput(t *testing.T) {
	bars := weekdays(monday, 4)
	bars[1], bars[2] = bars[2], bars[1]
	_, err := newPreprocessor().Preprocess(&contracts.RawSeries{Symbol: sym, Bars: bars}, Options{Lookback: 1})
	assert.Error(t, err)
}

func TestPreprocess_Idempotent(t *testing.T) {
	raw := &contracts.RawSeries{Symbol: sym, Bars: weekdays(monday, 40)}
	opts := Options{Lookback: 5, Imputate: true, Resample: mustRule(t, "W")}

	a, err := newPreprocessor().Preprocess(raw, opts)
	require.NoError(t, err)
	b, err := newPreprocessor().Preprocess(raw, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func mustRule(t *testing.T, spec string) Rule {
	t.Helper()
	r, err := ParseRule(spec)
	require.NoError(t, err)
	return r
}
