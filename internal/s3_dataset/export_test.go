package s3_dataset

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/contracts"
)

func TestWriteCSV(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	aapl := contracts.Symbol{Market: "US", Ticker: "AAPL"}

	ds := &contracts.Dataset{
		Columns: []string{"spc", "week"},
		Rows: []contracts.FeatureRow{
			{Date: day, Symbol: aapl, Values: []float64{1.5, 10}, Future: 0.25},
		},
		Predictors: []contracts.FeatureRow{
			{Date: day.AddDate(0, 0, 1), Symbol: aapl, Values: []float64{-2, 10}, Future: math.NaN()},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"date", "market", "ticker", "spc", "week", "future", "predictor"}, records[0])
	assert.Equal(t, []string{"2024-03-04", "US", "AAPL", "1.5", "10", "0.25", "false"}, records[1])
	assert.Equal(t, []string{"2024-03-05", "US", "AAPL", "-2", "10", "", "true"}, records[2])
}

func TestWriteCSV_RaggedRow(t *testing.T) {
	ds := &contracts.Dataset{
		Columns: []string{"spc", "mpc"},
		Rows: []contracts.FeatureRow{
			{Symbol: contracts.Symbol{Market: "AU", Ticker: "BHP"}, Values: []float64{1}},
		},
	}

	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, ds))
}
