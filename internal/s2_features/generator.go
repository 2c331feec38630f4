package s2_features

import (
	"fmt"

	"github.com/wonny/stox/backend/internal/contracts"
)

// Ribbon declares an indicator emitted once per window in [max(2, MinWindow), lookback]
type Ribbon struct {
	Name      string
	MinWindow int
	Fn        Indicator
}

// Fixed declares a window-independent indicator
type Fixed struct {
	Name string
	Fn   func(s *contracts.CleanedSeries) []float64
}

// Ribbons is the indicator bundle computed for every window length.
// Adding an indicator is one line here.
var Ribbons = []Ribbon{
	{Name: "AROONOSC", MinWindow: 2, Fn: AroonOsc},
	{Name: "ATR", MinWindow: 2, Fn: ATRNorm},
	{Name: "CORREL", MinWindow: 2, Fn: Correl},
	{Name: "BETA", MinWindow: 2, Fn: Beta},
	{Name: "CMO", MinWindow: 2, Fn: CMO},
	{Name: "CCI", MinWindow: 2, Fn: CCI},
	{Name: "SLOPE_price", MinWindow: 2, Fn: SlopePrice},
	{Name: "SLOPE_volume", MinWindow: 2, Fn: SlopeVolume},
	// unstable on very short windows
	{Name: "STOCHF_K", MinWindow: 6, Fn: StochFastK},
	{Name: "STOCH_K", MinWindow: 6, Fn: StochSlowK},
	{Name: "STOCH_D", MinWindow: 6, Fn: StochSlowD},
	{Name: "ULTOSC", MinWindow: 6, Fn: UltOsc},
	{Name: "ADOSC", MinWindow: 6, Fn: ADOsc},
}

// FixedIndicators are computed once per series
var FixedIndicators = []Fixed{
	{Name: "HT_TRENDMODE", Fn: TrendMode},
	{Name: "MFI", Fn: MFI},
	{Name: "BOP", Fn: BOP},
}

// FeatureSet holds named columns aligned to the input series
type FeatureSet struct {
	Names       []string
	Columns     [][]float64
	Categorical map[string]bool // pattern flags
	index       map[string]int
}

func newFeatureSet() *FeatureSet {
	return &FeatureSet{Categorical: make(map[string]bool), index: make(map[string]int)}
}

// Add appends a column; duplicate names are a programming error
func (fs *FeatureSet) Add(name string, col []float64) {
	if _, dup := fs.index[name]; dup {
		panic(fmt.Sprintf("duplicate feature column %q", name))
	}
	fs.index[name] = len(fs.Names)
	fs.Names = append(fs.Names, name)
	fs.Columns = append(fs.Columns, col)
}

// Column looks up a column by name
func (fs *FeatureSet) Column(name string) ([]float64, bool) {
	i, ok := fs.index[name]
	if !ok {
		return nil, false
	}
	return fs.Columns[i], true
}

// Len returns the number of columns
func (fs *FeatureSet) Len() int {
	return len(fs.Names)
}

// Generator computes technical features (S2)
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type Generator struct {
	ribbons  []Ribbon
	fixed    []Fixed
	patterns []Pattern
}

// NewGenerator creates a generator over the default registries
func NewGenerator() *Generator {
	return &Generator{ribbons: Ribbons, fixed: FixedIndicators, patterns: Patterns}
}

// ColumnNames lists the columns Generate emits, in order
func (g *Generator) ColumnNames(lookback int, includePatterns bool) []string {
	var names []string
	for i := 2; i <= lookback; i++ {
		for _, r := range g.ribbons {
			if i >= r.MinWindow {
				names = append(names, fmt.Sprintf("%s_%d", r.Name, i))
			}
		}
	}
	for _, f := range g.fixed {
		names = append(names, f.Name)
	}
	if includePatterns {
		for _, p := range g.patterns {
			names = append(names, p.Name)
		}
	}
	return names
}

// Generate computes every ribbon for windows 2..lookback, the fixed indicators
// and optionally the pattern flags. Columns are NaN where history is short.
func (g *Generator) Generate(s *contracts.CleanedSeries, lookback int, includePatterns bool) *FeatureSet {
	fs := newFeatureSet()
	n := s.Len()

	for i := 2; i <= lookback; i++ {
		for _, r := range g.ribbons {
			if i < r.MinWindow {
				continue
			}
			name := fmt.Sprintf("%s_%d", r.Name, i)
			if n <= i {
				fs.Add(name, nanSlice(n))
				continue
			}
			fs.Add(name, r.Fn(s, i))
		}
	}

	for _, f := range g.fixed {
		fs.Add(f.Name, f.Fn(s))
	}

	if includePatterns {
		for _, p := range g.patterns {
			fs.Add(p.Name, DetectPattern(s, p))
			fs.Categorical[p.Name] = true
		}
	}
	return fs
}
