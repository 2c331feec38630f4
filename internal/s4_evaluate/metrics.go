package s4_evaluate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Score summarises prediction quality against realised targets
type Score struct {
	Volatility float64 `json:"volatility"` // mean |y|
	MAE        float64 `json:"mae"`
	Alpha      float64 `json:"alpha"` // (volatility / MAE - 1) * 100
	VarScore   float64 `json:"var_score"`
}

// ScorePredictions computes volatility, MAE, alpha and explained variance.
// Empty input and a zero MAE leave alpha at 0 so the score stays JSON-encodable.
func ScorePredictions(y, pred []float64) Score {
	if len(y) == 0 || len(y) != len(pred) {
		return Score{}
	}

	var absY, absErr float64
	for i := range y {
		absY += math.Abs(y[i])
		absErr += math.Abs(y[i] - pred[i])
	}
	n := float64(len(y))
	s := Score{
		Volatility: absY / n,
		MAE:        absErr / n,
		VarScore:   ExplainedVariance(y, pred),
	}
	if s.MAE > 0 {
		s.Alpha = (s.Volatility/s.MAE - 1) * 100
	}
	return s
}

// ExplainedVariance is 1 - Var(y - pred) / Var(y).
// A constant target scores 1 when predicted exactly and 0 otherwise.
func ExplainedVariance(y, pred []float64) float64 {
	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - pred[i]
	}
	num := stat.PopVariance(resid, nil)
	den := stat.PopVariance(y, nil)
	if den == 0 {
		if num == 0 {
			return 1
		}
		return 0
	}
	return 1 - num/den
}

// Potential weights the prediction by its fit quality; negative alpha contributes nothing
func Potential(prediction, varScore, alpha float64) float64 {
	return prediction * varScore * math.Max(alpha, 0)
}

// Rank sorts results by potential, highest first. Ties keep ticker order.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := results[i].Potential, results[j].Potential
		if pi != pj {
			return pi > pj
		}
		return results[i].Symbol < results[j].Symbol
	})
}
