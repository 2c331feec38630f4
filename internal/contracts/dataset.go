package contracts

import (
	"fmt"
	"math"
	"time"
)

// FeatureRow is one (date, ticker) observation
type FeatureRow struct {
	Date   time.Time `json:"date"`
	Symbol Symbol    `json:"symbol"`
	Values []float64 `json:"values"` // aligned to the owning table's Columns
	Future float64   `json:"future"` // NaN on predictor rows
}

// HasNaN reports whether any feature value is NaN
func (r *FeatureRow) HasNaN() bool {
	for _, v := range r.Values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// FeatureTable holds one ticker's training rows and its held-out predictor row
// ⭐ SSOT: S3 티커 단위 결과
type FeatureTable struct {
	Symbol    Symbol       `json:"symbol"`
	Columns   []string     `json:"columns"`
	Rows      []FeatureRow `json:"rows"`
	Predictor *FeatureRow  `json:"predictor,omitempty"`
}

// Dataset is the union of feature tables across tickers
// ⭐ SSOT: S3 → S4/API 통합 데이터셋
type Dataset struct {
	Columns     []string     `json:"columns"`
	Categorical []string     `json:"categorical"`
	Rows        []FeatureRow `json:"rows"`       // sorted by (date, ticker)
	Predictors  []FeatureRow `json:"predictors"` // sorted by ticker
	Report      BuildReport  `json:"report"`
}

// ColumnIndex returns the position of a column or -1
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Symbols returns the distinct tickers present in training rows, in first-seen order
func (d *Dataset) Symbols() []Symbol {
	seen := make(map[Symbol]bool)
	var out []Symbol
	for _, r := range d.Rows {
		if !seen[r.Symbol] {
			seen[r.Symbol] = true
			out = append(out, r.Symbol)
		}
	}
	return out
}

// Exclusion records why a requested ticker is absent from the dataset
type Exclusion struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"` // insufficient_history, source_fetch, index_unavailable, build_failed
	Error  string `json:"error,omitempty"`
}

// BuildReport summarises one aggregation run
type BuildReport struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Requested  int         `json:"requested"`
	Built      []string    `json:"built"`
	Excluded   []Exclusion `json:"excluded"`
}

// BuildOptions are the dataset parameters consumed by the core
type BuildOptions struct {
	Lookback  int       `json:"lookback"`
	Lookfwd   int       `json:"lookfwd"`
	Resample  string    `json:"resample"` // "no" or a period spec
	Imputate  bool      `json:"imputate"`
	Patterns  bool      `json:"patterns"`
	StartDate time.Time `json:"start_date"` // lower bound on history (zero = unbounded)
}

// Validate checks the numeric options
func (o BuildOptions) Validate() error {
	if o.Lookback < 2 {
		return fmt.Errorf("lookback must be >= 2, got %d", o.Lookback)
	}
	if o.Lookfwd < 1 {
		return fmt.Errorf("lookfwd must be >= 1, got %d", o.Lookfwd)
	}
	return nil
}
