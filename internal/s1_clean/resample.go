package s1_clean

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Resample rules accepted in profiles
const (
	ResampleNone  = "no"
	ResampleDaily = "D"
	ResampleWeek  = "W" // weeks ending Sunday
	ResampleMonth = "M"
)

var weekdayCodes = map[string]time.Weekday{
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
	"SUN": time.Sunday,
}

// Rule assigns each date to the end date of its period
type Rule struct {
	spec    string
	kind    byte // 0 none, 'D', 'W', 'M'
	weekEnd time.Weekday
}

// ParseRule parses no, D, W, W-MON..W-SUN or M
func ParseRule(spec string) (Rule, error) {
	s := strings.ToUpper(strings.TrimSpace(spec))
	switch {
	case s == "" || s == "NO":
		return Rule{spec: ResampleNone}, nil
	case s == ResampleDaily:
		return Rule{spec: s, kind: 'D'}, nil
	case s == ResampleWeek:
		return Rule{spec: s, kind: 'W', weekEnd: time.Sunday}, nil
	case s == ResampleMonth:
		return Rule{spec: s, kind: 'M'}, nil
	case strings.HasPrefix(s, "W-"):
		wd, ok := weekdayCodes[strings.TrimPrefix(s, "W-")]
		if !ok {
			return Rule{}, fmt.Errorf("unknown resample weekday in %q", spec)
		}
		return Rule{spec: s, kind: 'W', weekEnd: wd}, nil
	}
	return Rule{}, fmt.Errorf("unknown resample rule %q", spec)
}

// String returns the normalised rule
func (r Rule) String() string {
	return r.spec
}

// Active reports whether the rule aggregates anything
func (r Rule) Active() bool {
	return r.kind != 0
}

// periodEnd labels a date with the last day of its period
func (r Rule) periodEnd(d time.Time) time.Time {
	switch r.kind {
	case 'W':
		ahead := (int(r.weekEnd) - int(d.Weekday()) + 7) % 7
		return d.AddDate(0, 0, ahead)
	case 'M':
		return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, d.Location())
	default:
		return d
	}
}

// resample aggregates rows: open first, high max, low min, close last, volume sum.
// NaN inputs are skipped; a bin with an undefined OHLC value is dropped.
func resample(rows []row, rule Rule) []row {
	if !rule.Active() || len(rows) == 0 {
		return rows
	}

	var (
		out []row
		cur *row
	)
	flush := func() {
		if cur != nil && !cur.hasNaN() {
			out = append(out, *cur)
		}
	}

	for _, r := range rows {
		end := rule.periodEnd(r.date)
		if cur == nil || !cur.date.Equal(end) {
			flush()
			cur = &row{
				date: end, open: math.NaN(), high: math.NaN(),
				low: math.NaN(), close: math.NaN(),
			}
		}
		if math.IsNaN(cur.open) {
			cur.open = r.open
		}
		if !math.IsNaN(r.high) && (math.IsNaN(cur.high) || r.high > cur.high) {
			cur.high = r.high
		}
		if !math.IsNaN(r.low) && (math.IsNaN(cur.low) || r.low < cur.low) {
			cur.low = r.low
		}
		if !math.IsNaN(r.close) {
			cur.close = r.close
		}
		if !math.IsNaN(r.volume) {
			cur.volume += r.volume
		}
	}
	flush()
	return out
}
