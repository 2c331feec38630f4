package contracts

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    Symbol
		wantErr bool
	}{
		{in: "BHP[AU]", want: Symbol{Market: "AU", Ticker: "BHP"}},
		{in: " SPX[US] ", want: Symbol{Market: "US", Ticker: "SPX"}},
		{in: "_MOCK_EASY[MOCK]", want: Symbol{Market: "MOCK", Ticker: "_MOCK_EASY"}},
		{in: "BHP", wantErr: true},
		{in: "[AU]", wantErr: true},
		{in: "BHP[]", wantErr: true},
		{in: "BHP[AU", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSymbol(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestRawSeries_Validate(t *testing.T) {
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := &RawSeries{Bars: []Bar{{Date: d0}, {Date: d0.AddDate(0, 0, 1)}}}
	assert.NoError(t, ok.Validate())

	dup := &RawSeries{Bars: []Bar{{Date: d0}, {Date: d0}}}
	assert.Error(t, dup.Validate())

	var nilSeries *RawSeries
	assert.Equal(t, 0, nilSeries.Len())
}

func TestFeatureRow_HasNaN(t *testing.T) {
	assert.False(t, (&FeatureRow{Values: []float64{1, 2}}).HasNaN())
	assert.True(t, (&FeatureRow{Values: []float64{1, math.NaN()}}).HasNaN())
}

func TestDataset_Helpers(t *testing.T) {
	a := Symbol{Market: "AU", Ticker: "A"}
	b := Symbol{Market: "AU", Ticker: "B"}
	ds := &Dataset{
		Columns: []string{"spc", "mpc"},
		Rows:    []FeatureRow{{Symbol: a}, {Symbol: b}, {Symbol: a}},
	}

	assert.Equal(t, 1, ds.ColumnIndex("mpc"))
	assert.Equal(t, -1, ds.ColumnIndex("nope"))
	assert.Equal(t, []Symbol{a, b}, ds.Symbols())
}

func TestExclusionReason(t *testing.T) {
	assert.Equal(t, "insufficient_history", ExclusionReason(fmt.Errorf("x: %w", ErrInsufficientHistory)))
	assert.Equal(t, "source_fetch", ExclusionReason(fmt.Errorf("x: %w", ErrSourceFetch)))
	assert.Equal(t, "index_unavailable", ExclusionReason(ErrIndexUnavailable))
	assert.Equal(t, "build_failed", ExclusionReason(errors.New("boom")))
}

func TestBuildOptions_Validate(t *testing.T) {
	assert.NoError(t, BuildOptions{Lookback: 2, Lookfwd: 1}.Validate())
	assert.Error(t, BuildOptions{Lookback: 1, Lookfwd: 1}.Validate())
	assert.Error(t, BuildOptions{Lookback: 10, Lookfwd: 0}.Validate())
}
