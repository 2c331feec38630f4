package quality

import (
	"math"

	"github.com/wonny/stox/backend/internal/contracts"
)

// QualityGate scores the completeness of a raw series before it is stored
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage  float64 `yaml:"min_price_coverage"`  // 0.95
	MinVolumeCoverage float64 `yaml:"min_volume_coverage"` // 0.80
	MinOHLCCoverage   float64 `yaml:"min_ohlc_coverage"`   // 0.80
	MinBars           int     `yaml:"min_bars"`            // 2
}

// DefaultConfig returns the thresholds used by the sync job
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:  0.95,
		MinVolumeCoverage: 0.80,
		MinOHLCCoverage:   0.80,
		MinBars:           2,
	}
}

// Snapshot is the quality verdict for one series
type Snapshot struct {
	Symbol       contracts.Symbol   `json:"symbol"`
	Bars         int                `json:"bars"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Failures     []string           `json:"failures,omitempty"`
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check validates one series
// ⭐ SSOT: S0 적재 전 품질 검증
func (g *QualityGate) Check(series *contracts.RawSeries) *Snapshot {
	snapshot := &Snapshot{Bars: series.Len()}
	if series != nil {
		snapshot.Symbol = series.Symbol
	}

	// 1. 커버리지 체크
	snapshot.Coverage = checkCoverage(series)

	// 2. 품질 점수 계산
	snapshot.QualityScore = calculateScore(snapshot.Coverage)

	// 3. 임계값 비교
	if snapshot.Bars < g.config.MinBars {
		snapshot.Failures = append(snapshot.Failures, "bars")
	}
	thresholds := map[string]float64{
		"price":  g.config.MinPriceCoverage,
		"volume": g.config.MinVolumeCoverage,
		"ohlc":   g.config.MinOHLCCoverage,
	}
	for _, key := range []string{"price", "volume", "ohlc"} {
		if snapshot.Coverage[key] < thresholds[key] {
			snapshot.Failures = append(snapshot.Failures, key)
		}
	}
	snapshot.Passed = len(snapshot.Failures) == 0

	return snapshot
}

// checkCoverage returns the share of bars with a usable value per field
func checkCoverage(series *contracts.RawSeries) map[string]float64 {
	coverage := map[string]float64{"price": 0, "volume": 0, "ohlc": 0}
	n := series.Len()
	if n == 0 {
		return coverage
	}

	var price, volume, ohlc int
	for _, b := range series.Bars {
		if valid(b.Close) && b.Close > 0 {
			price++
		}
		if valid(b.Volume) && b.Volume > 0 {
			volume++
		}
		if valid(b.Open) && valid(b.High) && valid(b.Low) && valid(b.Close) {
			ohlc++
		}
	}

	coverage["price"] = float64(price) / float64(n)
	coverage["volume"] = float64(volume) / float64(n)
	coverage["ohlc"] = float64(ohlc) / float64(n)
	return coverage
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		"price":  0.50, // 가격 데이터 필수
		"volume": 0.30, // 거래량
		"ohlc":   0.20, // 고저가 (gap/spread 피처)
	}

	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}

	return score
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
