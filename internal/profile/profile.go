package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
)

// Profile is the full dataset and evaluation configuration of one run
type Profile struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Dataset    Dataset    `yaml:"dataset" json:"dataset"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Evaluation Evaluation `yaml:"evaluation" json:"evaluation"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Dataset S1-S3: 데이터셋 구성 파라미터
type Dataset struct {
	Lookback  int    `yaml:"lookback" json:"lookback"`
	Lookfwd   int    `yaml:"lookfwd" json:"lookfwd"`
	Resample  string `yaml:"resample" json:"resample"` // "no", D, W, W-FRI, M
	Imputate  bool   `yaml:"imputate" json:"imputate"`
	Patterns  bool   `yaml:"patterns" json:"patterns"`
	StartDate string `yaml:"start_date" json:"start_date"` // YYYY-MM-DD, empty = all history
}

// Universe 대상 종목
type Universe struct {
	Markets []string          `yaml:"markets" json:"markets"`
	Tickers []string          `yaml:"tickers" json:"tickers"` // TICKER[MARKET]; empty = every listed ticker
	Indices map[string]string `yaml:"indices" json:"indices"` // market -> index ticker override
}

// Evaluation S4: 분할/모델 파라미터
type Evaluation struct {
	Ratio          int     `yaml:"ratio" json:"ratio"`
	Validation     bool    `yaml:"validation" json:"validation"`
	MinTestSamples int     `yaml:"min_test_samples" json:"min_test_samples"`
	Regressor      string  `yaml:"regressor" json:"regressor"` // knn, ridge
	K              int     `yaml:"k" json:"k"`
	Lambda         float64 `yaml:"lambda" json:"lambda"`
}

// Default returns the built-in profile used when no file is configured
func Default() *Profile {
	return &Profile{
		Meta: Meta{ProfileID: "stox_default", Version: "1"},
		Dataset: Dataset{
			Lookback: 30,
			Lookfwd:  1,
			Resample: "no",
		},
		Universe: Universe{Markets: []string{"AU", "US"}},
		Evaluation: Evaluation{
			Ratio:          5,
			MinTestSamples: 10,
			Regressor:      "knn",
			K:              5,
			Lambda:         1,
		},
	}
}

// BuildOptions converts the dataset section to core options
func (p *Profile) BuildOptions() (contracts.BuildOptions, error) {
	opts := contracts.BuildOptions{
		Lookback: p.Dataset.Lookback,
		Lookfwd:  p.Dataset.Lookfwd,
		Resample: p.Dataset.Resample,
		Imputate: p.Dataset.Imputate,
		Patterns: p.Dataset.Patterns,
	}
	if p.Dataset.StartDate != "" {
		d, err := time.Parse("2006-01-02", p.Dataset.StartDate)
		if err != nil {
			return opts, ValidationError{"dataset.start_date", "must be YYYY-MM-DD"}
		}
		opts.StartDate = d
	}
	return opts, nil
}

// Symbols parses the explicit ticker list
func (p *Profile) Symbols() ([]contracts.Symbol, error) {
	out := make([]contracts.Symbol, 0, len(p.Universe.Tickers))
	for i, t := range p.Universe.Tickers {
		s, err := contracts.ParseSymbol(t)
		if err != nil {
			return nil, ValidationError{fmt.Sprintf("universe.tickers[%d]", i), err.Error()}
		}
		out = append(out, s)
	}
	return out, nil
}

// IndexTable merges index overrides over the given defaults
func (p *Profile) IndexTable(defaults map[string]contracts.Symbol) map[string]contracts.Symbol {
	out := make(map[string]contracts.Symbol, len(defaults)+len(p.Universe.Indices))
	for m, s := range defaults {
		out[m] = s
	}
	markets := make([]string, 0, len(p.Universe.Indices))
	for m := range p.Universe.Indices {
		markets = append(markets, m)
	}
	sort.Strings(markets)
	for _, m := range markets {
		out[m] = contracts.Symbol{Market: m, Ticker: p.Universe.Indices[m]}
	}
	return out
}
