package s2_features

import (
	"math"

	"github.com/wonny/stox/backend/internal/contracts"
)

// patternAvgPeriod is the number of bars before a pattern used as the size reference
const patternAvgPeriod = 10

// patternWarmup covers the reference bars, the trend check and the longest (5-bar) pattern
const patternWarmup = patternAvgPeriod + 4

type candle struct{ o, h, l, c float64 }

func (k candle) body() float64       { return math.Abs(k.c - k.o) }
func (k candle) rng() float64        { return k.h - k.l }
func (k candle) bodyTop() float64    { return math.Max(k.o, k.c) }
func (k candle) bodyBottom() float64 { return math.Min(k.o, k.c) }
func (k candle) upper() float64      { return k.h - k.bodyTop() }
func (k candle) lower() float64      { return k.bodyBottom() - k.l }
func (k candle) white() bool         { return k.c > k.o }
func (k candle) black() bool         { return k.c < k.o }

func (k candle) color() int {
	switch {
	case k.white():
		return 1
	case k.black():
		return -1
	}
	return 0
}

// patternCtx evaluates one pattern ending at row t
type patternCtx struct {
	k        []candle
	t        int
	avgBody  float64 // mean body of the bars before the pattern
	avgRange float64 // mean high-low range of the bars before the pattern
	ref      int     // first bar of the pattern
}

func (x *patternCtx) at(back int) candle { return x.k[x.t-back] }

func (x *patternCtx) doji(c candle) bool       { return c.body() <= 0.1*x.avgRange }
func (x *patternCtx) longBody(c candle) bool   { return c.body() > x.avgBody }
func (x *patternCtx) shortBody(c candle) bool  { return c.body() < x.avgBody }
func (x *patternCtx) veryShort(v float64) bool { return v < 0.1*x.avgRange }
func (x *patternCtx) short(v float64) bool     { return v < 0.25*x.avgRange }
func (x *patternCtx) near(a, b float64) bool   { return math.Abs(a-b) <= 0.05*x.avgRange }

func (x *patternCtx) trendUp() bool   { return x.k[x.ref-1].c > x.k[x.ref-4].c }
func (x *patternCtx) trendDown() bool { return x.k[x.ref-1].c < x.k[x.ref-4].c }

func (x *patternCtx) marubozu(c candle) bool {
	return x.longBody(c) && x.veryShort(c.upper()) && x.veryShort(c.lower())
}

// engulfing returns +1/-1 when b's body engulfs a's body with opposite color
func engulfing(a, b candle) int {
	switch {
	case a.black() && b.white() && b.c > a.o && b.o < a.c:
		return 1
	case a.white() && b.black() && b.o > a.c && b.c < a.o:
		return -1
	}
	return 0
}

// inside reports whether b's body sits strictly within a's body
func inside(a, b candle) bool {
	return b.bodyTop() < a.bodyTop() && b.bodyBottom() > a.bodyBottom()
}

// gapUp reports whether b's body opens clear above a's body
func gapUp(a, b candle) bool { return b.bodyBottom() > a.bodyTop() }

// gapDown reports whether b's body opens clear below a's body
func gapDown(a, b candle) bool { return b.bodyTop() < a.bodyBottom() }

func signal(ok bool, sign int) int {
	if ok {
		return 100 * sign
	}
	return 0
}

// Pattern is one candlestick detector emitting -100, 0 or 100
type Pattern struct {
	Name   string
	Bars   int
	Detect func(x *patternCtx) int
}

// Patterns is the candlestick registry
var Patterns = []Pattern{
	{"CDLDOJI", 1, func(x *patternCtx) int {
		return signal(x.doji(x.at(0)), 1)
	}},
	{"CDLDRAGONFLYDOJI", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.doji(c) && x.veryShort(c.upper()) && !x.veryShort(c.lower()), 1)
	}},
	{"CDLGRAVESTONEDOJI", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.doji(c) && x.veryShort(c.lower()) && !x.veryShort(c.upper()), 1)
	}},
	{"CDLLONGLEGGEDDOJI", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.doji(c) && c.upper() > 0.3*x.avgRange && c.lower() > 0.3*x.avgRange, 1)
	}},
	{"CDLRICKSHAWMAN", 1, func(x *patternCtx) int {
		c := x.at(0)
		mid := (c.h + c.l) / 2
		centred := math.Abs((c.bodyTop()+c.bodyBottom())/2-mid) <= 0.1*c.rng()
		return signal(x.doji(c) && c.upper() > 0.3*x.avgRange && c.lower() > 0.3*x.avgRange && centred, 1)
	}},
	{"CDLTAKURI", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.doji(c) && x.veryShort(c.upper()) && c.lower() > 0.6*c.rng() && c.rng() > x.avgRange, 1)
	}},
	{"CDLHAMMER", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && c.lower() > 2*c.body() && x.veryShort(c.upper()) && x.trendDown(), 1)
	}},
	{"CDLHANGINGMAN", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && c.lower() > 2*c.body() && x.veryShort(c.upper()) && x.trendUp(), -1)
	}},
	{"CDLINVERTEDHAMMER", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && c.upper() > 2*c.body() && x.veryShort(c.lower()) && x.trendDown(), 1)
	}},
	{"CDLSHOOTINGSTAR", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && c.upper() > 2*c.body() && x.veryShort(c.lower()) && x.trendUp(), -1)
	}},
	{"CDLMARUBOZU", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.marubozu(c), c.color())
	}},
	{"CDLCLOSINGMARUBOZU", 1, func(x *patternCtx) int {
		c := x.at(0)
		ok := x.longBody(c) && ((c.white() && x.veryShort(c.upper())) || (c.black() && x.veryShort(c.lower())))
		return signal(ok, c.color())
	}},
	{"CDLBELTHOLD", 1, func(x *patternCtx) int {
		c := x.at(0)
		ok := x.longBody(c) && ((c.white() && x.veryShort(c.lower())) || (c.black() && x.veryShort(c.upper())))
		return signal(ok, c.color())
	}},
	{"CDLLONGLINE", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.longBody(c) && x.short(c.upper()) && x.short(c.lower()), c.color())
	}},
	{"CDLSHORTLINE", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && x.short(c.upper()) && x.short(c.lower()), c.color())
	}},
	{"CDLSPINNINGTOP", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && c.upper() > c.body() && c.lower() > c.body(), c.color())
	}},
	{"CDLHIGHWAVE", 1, func(x *patternCtx) int {
		c := x.at(0)
		return signal(x.shortBody(c) && c.upper() > 2*c.body() && c.lower() > 2*c.body(), c.color())
	}},
	{"CDLENGULFING", 2, func(x *patternCtx) int {
		return 100 * engulfing(x.at(1), x.at(0))
	}},
	{"CDLHARAMI", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		return signal(x.longBody(a) && x.shortBody(b) && inside(a, b), -a.color())
	}},
	{"CDLHARAMICROSS", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		return signal(x.longBody(a) && x.doji(b) && inside(a, b), -a.color())
	}},
	{"CDLPIERCING", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && b.white() && x.longBody(b) &&
			b.o < a.l && b.c > a.c+0.5*a.body() && b.c < a.o
		return signal(ok, 1)
	}},
	{"CDLDARKCLOUDCOVER", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.white() && x.longBody(a) && b.black() &&
			b.o > a.h && b.c < a.c-0.5*a.body() && b.c > a.o
		return signal(ok, -1)
	}},
	{"CDLKICKING", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		if !x.marubozu(a) || !x.marubozu(b) {
			return 0
		}
		switch {
		case a.black() && b.white() && b.l > a.h:
			return 100
		case a.white() && b.black() && b.h < a.l:
			return -100
		}
		return 0
	}},
	{"CDLCOUNTERATTACK", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.color()*b.color() == -1 && x.longBody(a) && x.longBody(b) && x.near(a.c, b.c)
		return signal(ok, b.color())
	}},
	{"CDLHOMINGPIGEON", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.black() && b.black() && x.longBody(a) && x.shortBody(b) && b.o < a.o && b.c > a.c
		return signal(ok, 1)
	}},
	{"CDLMATCHINGLOW", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		return signal(a.black() && b.black() && x.near(a.c, b.c), 1)
	}},
	{"CDLSEPARATINGLINES", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.color()*b.color() == -1 && x.near(a.o, b.o) && x.longBody(b)
		return signal(ok, b.color())
	}},
	{"CDLINNECK", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && b.white() && b.o < a.l && b.c >= a.c && b.c <= a.c+0.05*x.avgRange
		return signal(ok, -1)
	}},
	{"CDLONNECK", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && b.white() && b.o < a.l && x.near(b.c, a.l)
		return signal(ok, -1)
	}},
	{"CDLTHRUSTING", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && b.white() && b.o < a.l &&
			b.c > a.c+0.05*x.avgRange && b.c <= a.c+0.5*a.body()
		return signal(ok, -1)
	}},
	{"CDL3WHITESOLDIERS", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.white() && b.white() && c.white() &&
			b.c > a.c && c.c > b.c &&
			b.o > a.o && b.o < a.c && c.o > b.o && c.o < b.c &&
			x.veryShort(a.upper()) && x.veryShort(b.upper()) && x.veryShort(c.upper())
		return signal(ok, 1)
	}},
	{"CDL3BLACKCROWS", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && b.black() && c.black() &&
			b.c < a.c && c.c < b.c &&
			b.o < a.o && b.o > a.c && c.o < b.o && c.o > b.c &&
			x.veryShort(a.lower()) && x.veryShort(b.lower()) && x.veryShort(c.lower()) &&
			x.trendUp()
		return signal(ok, -1)
	}},
	{"CDLMORNINGSTAR", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && x.shortBody(b) && b.bodyTop() < a.bodyBottom() &&
			c.white() && c.c > a.c+0.3*a.body()
		return signal(ok, 1)
	}},
	{"CDLEVENINGSTAR", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.white() && x.longBody(a) && x.shortBody(b) && b.bodyBottom() > a.bodyTop() &&
			c.black() && c.c < a.c-0.3*a.body()
		return signal(ok, -1)
	}},
	{"CDLMORNINGDOJISTAR", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && x.doji(b) && b.bodyTop() < a.bodyBottom() &&
			c.white() && c.c > a.c+0.3*a.body()
		return signal(ok, 1)
	}},
	{"CDLEVENINGDOJISTAR", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.white() && x.longBody(a) && x.doji(b) && b.bodyBottom() > a.bodyTop() &&
			c.black() && c.c < a.c-0.3*a.body()
		return signal(ok, -1)
	}},
	{"CDL3INSIDE", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		if !x.longBody(a) || !x.shortBody(b) || !inside(a, b) {
			return 0
		}
		switch {
		case a.black() && c.white() && c.c > a.o:
			return 100
		case a.white() && c.black() && c.c < a.o:
			return -100
		}
		return 0
	}},
	{"CDL3OUTSIDE", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		switch engulfing(a, b) {
		case 1:
			return signal(c.c > b.c, 1)
		case -1:
			return signal(c.c < b.c, -1)
		}
		return 0
	}},
	{"CDL3LINESTRIKE", 4, func(x *patternCtx) int {
		a, b, c, d := x.at(3), x.at(2), x.at(1), x.at(0)
		switch {
		case a.white() && b.white() && c.white() && b.c > a.c && c.c > b.c &&
			d.black() && d.o > c.c && d.c < a.o:
			return 100
		case a.black() && b.black() && c.black() && b.c < a.c && c.c < b.c &&
			d.white() && d.o < c.c && d.c > a.o:
			return -100
		}
		return 0
	}},
	{"CDLDOJISTAR", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		if !x.longBody(a) || !x.doji(b) {
			return 0
		}
		switch {
		case a.white() && gapUp(a, b):
			return -100
		case a.black() && gapDown(a, b):
			return 100
		}
		return 0
	}},
	{"CDLKICKINGBYLENGTH", 2, func(x *patternCtx) int {
		a, b := x.at(1), x.at(0)
		if !x.marubozu(a) || !x.marubozu(b) {
			return 0
		}
		kick := (a.black() && b.white() && b.l > a.h) || (a.white() && b.black() && b.h < a.l)
		longer := b
		if a.body() > b.body() {
			longer = a
		}
		return signal(kick, longer.color())
	}},
	{"CDL2CROWS", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.white() && x.longBody(a) && b.black() && gapUp(a, b) &&
			c.black() && c.o < b.o && c.o > b.c && c.c > a.o && c.c < a.c
		return signal(ok, -1)
	}},
	{"CDLUPSIDEGAP2CROWS", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.white() && x.longBody(a) && b.black() && x.shortBody(b) && gapUp(a, b) &&
			c.black() && c.o > b.o && c.c < b.c && c.c > a.c
		return signal(ok, -1)
	}},
	{"CDL3STARSINSOUTH", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) && !x.short(a.lower()) &&
			b.black() && b.body() < a.body() && b.o > a.c && b.o <= a.h && b.l >= a.l && !x.veryShort(b.lower()) &&
			c.black() && x.shortBody(c) && x.veryShort(c.upper()) && x.veryShort(c.lower()) && c.l > b.l && c.h < b.h
		return signal(ok, 1)
	}},
	{"CDLABANDONEDBABY", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		if !x.longBody(a) || !x.doji(b) {
			return 0
		}
		switch {
		case a.black() && b.h < a.l && c.white() && c.l > b.h && c.c > a.c+0.3*a.body():
			return 100
		case a.white() && b.l > a.h && c.black() && c.h < b.l && c.c < a.c-0.3*a.body():
			return -100
		}
		return 0
	}},
	{"CDLADVANCEBLOCK", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		rising := a.white() && b.white() && c.white() && b.c > a.c && c.c > b.c &&
			b.o > a.o && b.o <= a.c && c.o > b.o && c.o <= b.c && x.longBody(a)
		weakening := (c.body() < b.body() && b.body() < a.body()) || c.upper() > c.body() || b.upper() > b.body()
		return signal(rising && weakening && x.trendUp(), -1)
	}},
	{"CDLGAPSIDESIDEWHITE", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		pair := b.white() && c.white() && x.near(b.o, c.o) && math.Abs(b.body()-c.body()) <= 0.25*x.avgRange
		if !pair {
			return 0
		}
		switch {
		case gapUp(a, b) && gapUp(a, c):
			return 100
		case gapDown(a, b) && gapDown(a, c):
			return -100
		}
		return 0
	}},
	{"CDLHIKKAKE", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		if !(b.h < a.h && b.l > a.l) {
			return 0
		}
		switch {
		case c.h < b.h && c.l < b.l:
			return 100
		case c.h > b.h && c.l > b.l:
			return -100
		}
		return 0
	}},
	{"CDLIDENTICAL3CROWS", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && b.black() && c.black() &&
			b.c < a.c && c.c < b.c && x.near(b.o, a.c) && x.near(c.o, b.c) &&
			x.veryShort(a.lower()) && x.veryShort(b.lower()) && x.veryShort(c.lower()) &&
			x.trendUp()
		return signal(ok, -1)
	}},
	{"CDLSTALLEDPATTERN", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.white() && b.white() && c.white() && b.c > a.c && c.c > b.c &&
			x.longBody(a) && x.longBody(b) && x.veryShort(b.upper()) &&
			b.o > a.o && b.o <= a.c &&
			x.shortBody(c) && c.o >= b.c-c.body()-0.05*x.avgRange
		return signal(ok && x.trendUp(), -1)
	}},
	{"CDLSTICKSANDWICH", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && b.white() && b.l > a.c && c.black() && x.near(c.c, a.c)
		return signal(ok, 1)
	}},
	{"CDLTASUKIGAP", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		similar := math.Abs(b.body()-c.body()) <= 0.25*x.avgRange
		switch {
		case a.white() && b.white() && gapUp(a, b) && c.black() &&
			c.o < b.c && c.o > b.o && c.c < b.o && c.c > a.bodyTop() && similar:
			return 100
		case a.black() && b.black() && gapDown(a, b) && c.white() &&
			c.o > b.c && c.o < b.o && c.c > b.o && c.c < a.bodyBottom() && similar:
			return -100
		}
		return 0
	}},
	{"CDLTRISTAR", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		if !x.doji(a) || !x.doji(b) || !x.doji(c) {
			return 0
		}
		switch {
		case b.bodyBottom() > math.Max(a.bodyTop(), c.bodyTop()):
			return -100
		case b.bodyTop() < math.Min(a.bodyBottom(), c.bodyBottom()):
			return 100
		}
		return 0
	}},
	{"CDLUNIQUE3RIVER", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		ok := a.black() && x.longBody(a) &&
			b.black() && b.o <= a.o && b.c > a.c && b.l < a.l &&
			c.white() && x.shortBody(c) && c.o > b.l && c.c < b.c
		return signal(ok, 1)
	}},
	{"CDLXSIDEGAP3METHODS", 3, func(x *patternCtx) int {
		a, b, c := x.at(2), x.at(1), x.at(0)
		switch {
		case a.white() && b.white() && gapUp(a, b) && c.black() &&
			c.o < b.c && c.o > b.o && c.c < a.c && c.c > a.o:
			return 100
		case a.black() && b.black() && gapDown(a, b) && c.white() &&
			c.o > b.c && c.o < b.o && c.c > a.c && c.c < a.o:
			return -100
		}
		return 0
	}},
	{"CDLCONCEALBABYSWALL", 4, func(x *patternCtx) int {
		a, b, c, d := x.at(3), x.at(2), x.at(1), x.at(0)
		ok := a.black() && x.marubozu(a) && b.black() && x.marubozu(b) &&
			c.black() && c.o < b.c && c.h > b.c &&
			d.black() && d.o > c.h && d.c < c.l
		return signal(ok, 1)
	}},
	{"CDLHIKKAKEMOD", 4, func(x *patternCtx) int {
		a, b, c, d := x.at(3), x.at(2), x.at(1), x.at(0)
		if !(b.h < a.h && b.l > a.l) || !(c.h < b.h && c.l > b.l) {
			return 0
		}
		switch {
		case c.c <= c.l+0.25*c.rng() && d.h < c.h && d.l < c.l:
			return 100
		case c.c >= c.h-0.25*c.rng() && d.h > c.h && d.l > c.l:
			return -100
		}
		return 0
	}},
	{"CDLBREAKAWAY", 5, func(x *patternCtx) int {
		a, b, c, d, e := x.at(4), x.at(3), x.at(2), x.at(1), x.at(0)
		if !x.longBody(a) {
			return 0
		}
		switch {
		case a.black() && b.black() && d.black() && gapDown(a, b) &&
			c.h < b.h && c.l < b.l && d.h < c.h && d.l < c.l &&
			e.white() && e.c > b.o && e.c < a.c:
			return 100
		case a.white() && b.white() && d.white() && gapUp(a, b) &&
			c.h > b.h && c.l > b.l && d.h > c.h && d.l > c.l &&
			e.black() && e.c < b.o && e.c > a.c:
			return -100
		}
		return 0
	}},
	{"CDLLADDERBOTTOM", 5, func(x *patternCtx) int {
		a, b, c, d, e := x.at(4), x.at(3), x.at(2), x.at(1), x.at(0)
		ok := a.black() && b.black() && c.black() &&
			b.o < a.o && c.o < b.o && b.c < a.c && c.c < b.c &&
			d.black() && !x.short(d.upper()) &&
			e.white() && e.o > d.o && e.c > d.h
		return signal(ok, 1)
	}},
	{"CDLMATHOLD", 5, func(x *patternCtx) int {
		a, b, c, d, e := x.at(4), x.at(3), x.at(2), x.at(1), x.at(0)
		floor := a.c - 0.5*a.body()
		ok := a.white() && x.longBody(a) &&
			b.black() && x.shortBody(b) && gapUp(a, b) &&
			x.shortBody(c) && x.shortBody(d) &&
			c.bodyBottom() < b.bodyBottom() && d.bodyBottom() < c.bodyBottom() &&
			math.Min(b.bodyBottom(), math.Min(c.bodyBottom(), d.bodyBottom())) > floor &&
			e.white() && e.o > d.c && e.c > math.Max(b.h, math.Max(c.h, d.h))
		return signal(ok, 1)
	}},
	{"CDLRISEFALL3METHODS", 5, func(x *patternCtx) int {
		a, b, c, d, e := x.at(4), x.at(3), x.at(2), x.at(1), x.at(0)
		if !x.longBody(a) || !x.longBody(e) || !x.shortBody(b) || !x.shortBody(c) || !x.shortBody(d) {
			return 0
		}
		held := true
		for _, k := range []candle{b, c, d} {
			held = held && k.bodyTop() < a.h && k.bodyBottom() > a.l
		}
		if !held {
			return 0
		}
		switch {
		case a.white() && e.white() && c.c < b.c && d.c < c.c && e.o > d.c && e.c > a.c:
			return 100
		case a.black() && e.black() && c.c > b.c && d.c > c.c && e.o < d.c && e.c < a.c:
			return -100
		}
		return 0
	}},
}

// DetectPattern evaluates one pattern over the series. Rows before the warmup are NaN.
func DetectPattern(s *contracts.CleanedSeries, p Pattern) []float64 {
	n := s.Len()
	out := nanSlice(n)

	k := make([]candle, n)
	for i := range k {
		k[i] = candle{o: s.Open[i], h: s.High[i], l: s.Low[i], c: s.Close[i]}
	}

	for t := patternWarmup; t < n; t++ {
		ref := t - p.Bars + 1
		var body, rng float64
		for i := ref - patternAvgPeriod; i < ref; i++ {
			body += k[i].body()
			rng += k[i].rng()
		}
		x := &patternCtx{
			k:        k,
			t:        t,
			ref:      ref,
			avgBody:  body / patternAvgPeriod,
			avgRange: rng / patternAvgPeriod,
		}
		out[t] = float64(p.Detect(x))
	}
	return out
}
