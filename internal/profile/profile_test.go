package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/contracts"
)

const sampleYAML = `
meta:
  profile_id: au_weekly
  version: "2"
dataset:
  lookback: 20
  lookfwd: 2
  resample: W-FRI
  imputate: true
  start_date: "2005-01-03"
universe:
  markets: [AU]
  tickers: ["BHP[AU]", "CBA[AU]"]
  indices:
    AU: XJO
evaluation:
  ratio: 4
  validation: true
  regressor: ridge
  lambda: 0.5
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	p, data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleYAML, string(data))

	assert.Equal(t, "au_weekly", p.Meta.ProfileID)
	assert.Equal(t, 20, p.Dataset.Lookback)
	assert.Equal(t, "W-FRI", p.Dataset.Resample)
	assert.Equal(t, []string{"AU"}, p.Universe.Markets)
	// defaults survive for unset fields
	assert.Equal(t, 10, p.Evaluation.MinTestSamples)
	assert.Equal(t, 5, p.Evaluation.K)

	opts, err := p.BuildOptions()
	require.NoError(t, err)
	assert.Equal(t, contracts.BuildOptions{
		Lookback:  20,
		Lookfwd:   2,
		Resample:  "W-FRI",
		Imputate:  true,
		StartDate: time.Date(2005, 1, 3, 0, 0, 0, 0, time.UTC),
	}, opts)

	syms, err := p.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []contracts.Symbol{{Market: "AU", Ticker: "BHP"}, {Market: "AU", Ticker: "CBA"}}, syms)

	table := p.IndexTable(map[string]contracts.Symbol{
		"AU": {Market: "AU", Ticker: "XAO"},
		"US": {Market: "US", Ticker: "SPX"},
	})
	assert.Equal(t, "XJO", table["AU"].Ticker)
	assert.Equal(t, "SPX", table["US"].Ticker)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("dataset:\n  lookbak: 20\n"))
	assert.Error(t, err)
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	p, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{"missing id", func(p *Profile) { p.Meta.ProfileID = "" }, "meta.profile_id"},
		{"lookback too small", func(p *Profile) { p.Dataset.Lookback = 1 }, "dataset.lookback"},
		{"lookfwd zero", func(p *Profile) { p.Dataset.Lookfwd = 0 }, "dataset.lookfwd"},
		{"bad resample", func(p *Profile) { p.Dataset.Resample = "fortnight" }, "dataset.resample"},
		{"bad start date", func(p *Profile) { p.Dataset.StartDate = "03/01/2005" }, "dataset.start_date"},
		{"lower-case market", func(p *Profile) { p.Universe.Markets = []string{"au"} }, "universe.markets[0]"},
		{"bad ticker", func(p *Profile) { p.Universe.Tickers = []string{"BHP"} }, "universe.tickers[0]"},
		{"empty index", func(p *Profile) { p.Universe.Indices = map[string]string{"AU": ""} }, "universe.indices.AU"},
		{"ratio", func(p *Profile) { p.Evaluation.Ratio = 1 }, "evaluation.ratio"},
		{"unknown regressor", func(p *Profile) { p.Evaluation.Regressor = "lgbm" }, "evaluation.regressor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)

			err := Validate(p)
			require.Error(t, err)
			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.NoError(t, Validate(Default()))
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(Default()))

	p := Default()
	p.Dataset.Lookback = 200
	p.Dataset.Lookfwd = 250
	p.Universe.Markets = nil

	codes := map[string]bool{}
	for _, w := range Warn(p) {
		codes[w.Code] = true
	}
	assert.True(t, codes["WIDE_DATASET"])
	assert.True(t, codes["EMBARGO_SHORT"])
	assert.True(t, codes["EMPTY_UNIVERSE"])
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	// 동일 설정 → 동일 해시
	b, _ := Hash(Default())
	assert.Equal(t, a, b)

	p := Default()
	p.Dataset.Lookback = 31
	c, _ := Hash(p)
	assert.NotEqual(t, a, c)
}

func TestNewSnapshot(t *testing.T) {
	snap, err := NewSnapshot(Default(), []byte("meta: {}"), "run-1")
	require.NoError(t, err)

	hash, _ := Hash(Default())
	assert.Equal(t, hash, snap.ProfileHash)
	assert.Equal(t, "stox_default", snap.ProfileID)
	assert.Equal(t, "run-1", snap.RunID)
	assert.False(t, snap.CreatedAt.IsZero())
}
