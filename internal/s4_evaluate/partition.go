package s4_evaluate

import (
	"fmt"

	"github.com/wonny/stox/backend/internal/contracts"
)

// DefaultRatio gives an 80/20 train/test split
const DefaultRatio = 5

// SplitConfig controls per-ticker partitioning
type SplitConfig struct {
	Ratio      int  // denominator of the test share
	Lookback   int  // embargo between train and test (and validation)
	Validation bool // carve a validation block out of the held-out tail
}

// Partition holds the date-ordered train/validation/test rows
type Partition struct {
	Train      []contracts.FeatureRow
	Validation []contracts.FeatureRow
	Test       []contracts.FeatureRow

	// per-ticker counts, keyed by Symbol.String()
	TrainBySymbol map[string]int
	TestBySymbol  map[string][]contracts.FeatureRow
}

// Split partitions every ticker's rows in date order.
// Train is [0, split); test starts lookback rows after split so no label overlaps the training window.
func Split(ds *contracts.Dataset, cfg SplitConfig) (*Partition, error) {
	if cfg.Ratio <= 1 {
		return nil, fmt.Errorf("split ratio must be > 1, got %d", cfg.Ratio)
	}
	if cfg.Lookback < 0 {
		return nil, fmt.Errorf("lookback must be >= 0, got %d", cfg.Lookback)
	}

	// ds.Rows is sorted by (date, ticker) so each group is already date ordered
	groups := make(map[string][]contracts.FeatureRow)
	var order []string
	for _, r := range ds.Rows {
		key := r.Symbol.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	p := &Partition{
		TrainBySymbol: make(map[string]int),
		TestBySymbol:  make(map[string][]contracts.FeatureRow),
	}
	for _, key := range order {
		rows := groups[key]
		b := bounds(len(rows), cfg)

		p.Train = append(p.Train, rows[:b.split]...)
		p.TrainBySymbol[key] = b.split
		if cfg.Validation && b.valStart < b.valEnd {
			p.Validation = append(p.Validation, rows[b.valStart:b.valEnd]...)
		}
		if b.testStart < len(rows) {
			p.Test = append(p.Test, rows[b.testStart:]...)
			p.TestBySymbol[key] = rows[b.testStart:]
		}
	}
	return p, nil
}

type splitBounds struct {
	split     int
	valStart  int
	valEnd    int
	testStart int
}

func bounds(n int, cfg SplitConfig) splitBounds {
	split := int(float64(n) * (1 - 1/float64(cfg.Ratio)))
	b := splitBounds{split: split, testStart: split + cfg.Lookback}
	if !cfg.Validation {
		return b
	}

	b.valStart = split + cfg.Lookback
	nValTest := n - (b.valStart + 1)
	val := 0
	if nValTest > 0 {
		val = nValTest / 2
	}
	b.valEnd = min(b.valStart+val, n)
	b.testStart = b.valStart + val + cfg.Lookback
	return b
}
