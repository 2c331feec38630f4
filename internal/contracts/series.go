package contracts

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Symbol identifies one series by market and ticker
// ⭐ SSOT: 텍스트 형식은 TICKER[MARKET] (예: BHP[AU])
type Symbol struct {
	Market string `json:"market"`
	Ticker string `json:"ticker"`
}

// String renders the TICKER[MARKET] form
func (s Symbol) String() string {
	return s.Ticker + "[" + s.Market + "]"
}

// ParseSymbol parses the TICKER[MARKET] form
func ParseSymbol(text string) (Symbol, error) {
	text = strings.TrimSpace(text)
	open := strings.LastIndexByte(text, '[')
	if open <= 0 || !strings.HasSuffix(text, "]") {
		return Symbol{}, fmt.Errorf("invalid symbol %q: want TICKER[MARKET]", text)
	}
	market := text[open+1 : len(text)-1]
	if market == "" {
		return Symbol{}, fmt.Errorf("invalid symbol %q: empty market", text)
	}
	return Symbol{Market: market, Ticker: text[:open]}, nil
}

// Bar is one daily OHLCV sample. Missing values are NaN.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// RawSeries is a time-ordered series as read from a source
// ⭐ SSOT: S0 → S1 원본 시계열 (코어에서 변경 금지)
type RawSeries struct {
	Symbol Symbol `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars
func (s *RawSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Validate checks the strictly increasing date invariant
func (s *RawSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%s: dates not strictly increasing at %s",
				s.Symbol, s.Bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// CleanedSeries is the column-oriented output of the preprocessor
// ⭐ SSOT: S1 → S2/S3 정제된 시계열
type CleanedSeries struct {
	Symbol Symbol
	Dates  []time.Time

	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	// Derived
	Price  []float64 // (open+close)/2
	Gap    []float64 // open - previous close
	Spread []float64 // high - low
	PC     []float64 // price percent change
}

// Len returns the number of rows
func (c *CleanedSeries) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Dates)
}

// PCByDate maps each date to its pc value
func (c *CleanedSeries) PCByDate() map[time.Time]float64 {
	out := make(map[time.Time]float64, len(c.Dates))
	for i, d := range c.Dates {
		out[d] = c.PC[i]
	}
	return out
}

// HasNaNOHLC reports whether row i has an undefined OHLC value
func (c *CleanedSeries) HasNaNOHLC(i int) bool {
	return math.IsNaN(c.Open[i]) || math.IsNaN(c.High[i]) ||
		math.IsNaN(c.Low[i]) || math.IsNaN(c.Close[i])
}
