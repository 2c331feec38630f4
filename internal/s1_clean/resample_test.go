package s1_clean

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/contracts"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		spec    string
		want    string
		active  bool
		wantErr bool
	}{
		{spec: "no", want: "no"},
		{spec: "", want: "no"},
		{spec: "D", want: "D", active: true},
		{spec: "w", want: "W", active: true},
		{spec: "W-FRI", want: "W-FRI", active: true},
		{spec: "M", want: "M", active: true},
		{spec: "W-XYZ", wantErr: true},
		{spec: "Q", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			r, err := ParseRule(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
			assert.Equal(t, tt.active, r.Active())
		})
	}
}

func TestRule_PeriodEnd(t *testing.T) {
	wed := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), mustRule(t, "W").periodEnd(wed))
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), mustRule(t, "W-FRI").periodEnd(wed))
	assert.Equal(t, wed, mustRule(t, "W-WED").periodEnd(wed))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), mustRule(t, "M").periodEnd(wed))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		mustRule(t, "M").periodEnd(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
}

func TestPreprocess_WeeklyAggregation(t *testing.T) {
	// three full Mon-Sun weeks of weekday bars
	raw := &contracts.RawSeries{Symbol: sym, Bars: weekdays(monday, 15)}

	out, err := newPreprocessor().Preprocess(raw, Options{Lookback: 1, Resample: mustRule(t, "W")})
	require.NoError(t, err)

	// week 1 is consumed by pc; weeks 2 and 3 remain
	require.Equal(t, 2, out.Len())
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), out.Dates[0])
	assert.Equal(t, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), out.Dates[1])

	week2 := raw.Bars[5:10]
	assert.Equal(t, week2[0].Open, out.Open[0])
	assert.Equal(t, week2[4].High, out.High[0])
	assert.Equal(t, week2[0].Low, out.Low[0])
	// Sunday close is forward-filled from Friday
	assert.Equal(t, week2[4].Close, out.Close[0])
	assert.Equal(t, 5000.0, out.Volume[0])
}
