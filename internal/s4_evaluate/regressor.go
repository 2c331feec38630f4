package s4_evaluate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned when predicting before Fit
var ErrNotFitted = errors.New("regressor not fitted")

// Regressor is a baseline model over feature rows
type Regressor interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
}

// scaler standardizes columns with training mean and standard deviation
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(X [][]float64) scaler {
	cols := len(X[0])
	s := scaler{mean: make([]float64, cols), std: make([]float64, cols)}
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		m, sd := stat.PopMeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		s.mean[j], s.std[j] = m, sd
	}
	return s
}

func (s scaler) transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.mean[j]) / s.std[j]
	}
	return out
}

func checkShape(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("no training rows")
	}
	if len(X) != len(y) {
		return fmt.Errorf("rows/targets mismatch: %d vs %d", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return errors.New("no feature columns")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), width)
		}
	}
	return nil
}

// KNNRegressor averages the targets of the k nearest standardized training rows
type KNNRegressor struct {
	K int

	scaler scaler
	points [][]float64
	y      []float64
}

// NewKNNRegressor creates a KNN baseline. k < 1 defaults to 5.
func NewKNNRegressor(k int) *KNNRegressor {
	if k < 1 {
		k = 5
	}
	return &KNNRegressor{K: k}
}

func (r *KNNRegressor) Name() string { return fmt.Sprintf("knn(k=%d)", r.K) }

func (r *KNNRegressor) Fit(X [][]float64, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	r.scaler = fitScaler(X)
	r.points = make([][]float64, len(X))
	for i, row := range X {
		r.points[i] = r.scaler.transform(row)
	}
	r.y = append([]float64(nil), y...)
	return nil
}

type neighbour struct {
	dist float64
	idx  int
}

func (r *KNNRegressor) Predict(x []float64) (float64, error) {
	if r.points == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(r.scaler.mean) {
		return 0, fmt.Errorf("got %d features, want %d", len(x), len(r.scaler.mean))
	}
	q := r.scaler.transform(x)

	ns := make([]neighbour, len(r.points))
	for i, p := range r.points {
		var d float64
		for j := range p {
			diff := p[j] - q[j]
			d += diff * diff
		}
		ns[i] = neighbour{dist: d, idx: i}
	}
	sort.Slice(ns, func(a, b int) bool {
		if ns[a].dist != ns[b].dist {
			return ns[a].dist < ns[b].dist
		}
		return ns[a].idx < ns[b].idx
	})

	k := min(r.K, len(ns))
	var sum float64
	for _, n := range ns[:k] {
		sum += r.y[n.idx]
	}
	return sum / float64(k), nil
}

// RidgeRegressor is L2-regularised least squares on standardized features.
// Solved in closed form: w = (XᵀX + λI)⁻¹ Xᵀ(y - ȳ).
type RidgeRegressor struct {
	Lambda float64

	scaler    scaler
	intercept float64
	weights   *mat.VecDense
}

// NewRidgeRegressor creates a ridge baseline. lambda <= 0 defaults to 1.
func NewRidgeRegressor(lambda float64) *RidgeRegressor {
	if lambda <= 0 {
		lambda = 1
	}
	return &RidgeRegressor{Lambda: lambda}
}

func (r *RidgeRegressor) Name() string { return fmt.Sprintf("ridge(lambda=%g)", r.Lambda) }

func (r *RidgeRegressor) Fit(X [][]float64, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	r.scaler = fitScaler(X)

	n, k := len(X), len(X[0])
	design := mat.NewDense(n, k, nil)
	for i, row := range X {
		design.SetRow(i, r.scaler.transform(row))
	}

	r.intercept = stat.Mean(y, nil)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - r.intercept
	}

	var gram mat.SymDense
	gram.SymOuterK(1, design.T())
	for j := 0; j < k; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(n, centered))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return errors.New("ridge: gram matrix not positive definite")
	}
	w := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(w, &rhs); err != nil {
		return fmt.Errorf("ridge: solve: %w", err)
	}
	r.weights = w
	return nil
}

func (r *RidgeRegressor) Predict(x []float64) (float64, error) {
	if r.weights == nil {
		return 0, ErrNotFitted
	}
	if len(x) != r.weights.Len() {
		return 0, fmt.Errorf("got %d features, want %d", len(x), r.weights.Len())
	}
	z := mat.NewVecDense(len(x), r.scaler.transform(x))
	return r.intercept + mat.Dot(r.weights, z), nil
}

// NewRegressor builds a baseline by name: "knn" or "ridge"
func NewRegressor(kind string, k int, lambda float64) (Regressor, error) {
	switch kind {
	case "", "knn":
		return NewKNNRegressor(k), nil
	case "ridge":
		return NewRidgeRegressor(lambda), nil
	default:
		return nil, fmt.Errorf("unknown regressor %q (want knn or ridge)", kind)
	}
}
