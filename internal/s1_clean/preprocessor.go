package s1_clean

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
)

// maxGap is the longest tolerated break between consecutive samples
const maxGap = 365 * 24 * time.Hour

// Options controls preprocessing
type Options struct {
	Lookback int
	Imputate bool
	Resample Rule
}

// OptionsFrom derives preprocessing options from build options
func OptionsFrom(opts contracts.BuildOptions) (Options, error) {
	rule, err := ParseRule(opts.Resample)
	if err != nil {
		return Options{}, err
	}
	return Options{Lookback: opts.Lookback, Imputate: opts.Imputate, Resample: rule}, nil
}

// Preprocessor cleans raw series (S1)
// ⭐ SSOT: 시계열 정제는 여기서만
type Preprocessor struct {
	logger *logger.Logger
}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor(log *logger.Logger) *Preprocessor {
	return &Preprocessor{logger: log.WithField("module", "s1_clean")}
}

type row struct {
	date                           time.Time
	open, high, low, close, volume float64
}

func (r *row) hasNaN() bool {
	return math.IsNaN(r.open) || math.IsNaN(r.high) || math.IsNaN(r.low) || math.IsNaN(r.close)
}

// Preprocess runs gap trim, imputation, calendar padding, resampling and derived fields.
// The raw series is not modified. Fewer than Lookback rows yields ErrInsufficientHistory.
func (p *Preprocessor) Preprocess(raw *contracts.RawSeries, opts Options) (*contracts.CleanedSeries, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil series: %w", contracts.ErrInsufficientHistory)
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	bars := p.trimGaps(raw)

	rows := make([]row, len(bars))
	for i, b := range bars {
		rows[i] = row{date: b.Date, open: b.Open, high: b.High, low: b.Low, close: b.Close, volume: b.Volume}
	}
	if opts.Imputate {
		impute(rows)
	}

	rows = padCalendar(rows)
	rows = resample(rows, opts.Resample)

	out := derive(raw.Symbol, rows)
	if out.Len() < opts.Lookback || out.Len() == 0 {
		return nil, fmt.Errorf("%s: %d clean rows, need %d: %w",
			raw.Symbol, out.Len(), opts.Lookback, contracts.ErrInsufficientHistory)
	}
	return out, nil
}

// trimGaps keeps the segment after the last gap longer than a year
func (p *Preprocessor) trimGaps(raw *contracts.RawSeries) []contracts.Bar {
	start := 0
	for i := 1; i < len(raw.Bars); i++ {
		if raw.Bars[i].Date.Sub(raw.Bars[i-1].Date) > maxGap {
			start = i
		}
	}
	if start > 0 {
		p.logger.WithFields(map[string]interface{}{
			"symbol":  raw.Symbol.String(),
			"dropped": start,
			"from":    raw.Bars[start].Date.Format("2006-01-02"),
		}).Debug("history truncated at gap")
	}
	return raw.Bars[start:]
}

// impute fills zero/NaN open from the previous close and zero/NaN high/low from the row's own open/close.
// A missing open on the first row has no previous close, so the row is left undefined for padCalendar to skip.
func impute(rows []row) {
	missing := func(v float64) bool { return v == 0 || math.IsNaN(v) }

	for i := range rows {
		r := &rows[i]
		if missing(r.open) {
			if i == 0 {
				r.open = math.NaN()
				continue
			}
			r.open = rows[i-1].close
		}
		if missing(r.high) {
			r.high = math.Max(r.open, r.close)
		}
		if missing(r.low) {
			r.low = math.Min(r.open, r.close)
		}
	}
}

// padCalendar forward-fills onto a daily grid. Inserted days and weekends carry zero volume.
// Rows with undefined OHLC are treated as missing days and filled the same way.
func padCalendar(rows []row) []row {
	first := -1
	for i := range rows {
		if !rows[i].hasNaN() {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}

	valid := make(map[time.Time]row, len(rows))
	for _, r := range rows[first:] {
		if !r.hasNaN() {
			valid[dayOf(r.date)] = r
		}
	}

	start := dayOf(rows[first].date)
	end := dayOf(rows[len(rows)-1].date)
	out := make([]row, 0, int(end.Sub(start).Hours()/24)+1)

	var last row
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		r, ok := valid[d]
		if ok {
			last = r
		} else {
			r = last
			r.volume = 0
		}
		r.date = d
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			r.volume = 0
		}
		out = append(out, r)
	}
	return out
}

// derive computes price, gap, spread and pc and drops the first row
func derive(symbol contracts.Symbol, rows []row) *contracts.CleanedSeries {
	n := len(rows) - 1
	if n < 0 {
		n = 0
	}
	out := &contracts.CleanedSeries{
		Symbol: symbol,
		Dates:  make([]time.Time, 0, n),
		Open:   make([]float64, 0, n),
		High:   make([]float64, 0, n),
		Low:    make([]float64, 0, n),
		Close:  make([]float64, 0, n),
		Volume: make([]float64, 0, n),
		Price:  make([]float64, 0, n),
		Gap:    make([]float64, 0, n),
		Spread: make([]float64, 0, n),
		PC:     make([]float64, 0, n),
	}

	for i := 1; i < len(rows); i++ {
		r, prev := rows[i], rows[i-1]
		price := (r.open + r.close) / 2
		prevPrice := (prev.open + prev.close) / 2
		pc := (price/prevPrice - 1) * 100
		if r.hasNaN() || math.IsNaN(pc) || math.IsInf(pc, 0) {
			continue
		}

		out.Dates = append(out.Dates, r.date)
		out.Open = append(out.Open, r.open)
		out.High = append(out.High, r.high)
		out.Low = append(out.Low, r.low)
		out.Close = append(out.Close, r.close)
		out.Volume = append(out.Volume, r.volume)
		out.Price = append(out.Price, price)
		out.Gap = append(out.Gap, r.open-prev.close)
		out.Spread = append(out.Spread, r.high-r.low)
		out.PC = append(out.PC, pc)
	}
	return out
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
