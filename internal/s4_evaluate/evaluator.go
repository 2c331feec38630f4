package s4_evaluate

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
)

// MinTestSamples: tickers with fewer held-out rows are not scored
const MinTestSamples = 10

// Result is one ticker's prediction and its out-of-sample quality
type Result struct {
	Symbol       string    `json:"symbol"`
	PredictedAt  time.Time `json:"predicted_at"`
	Prediction   float64   `json:"prediction"`
	Volatility   float64   `json:"volatility"`
	MAE          float64   `json:"mae"`
	Alpha        float64   `json:"alpha"`
	VarScore     float64   `json:"var_score"`
	Potential    float64   `json:"potential"`
	TrainSamples int       `json:"train_samples"`
	TestSamples  int       `json:"test_samples"`
}

// Skipped records a ticker that was not scored
type Skipped struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Report is the ranked outcome of one evaluation
type Report struct {
	Model      string    `json:"model"`
	Results    []Result  `json:"results"` // ranked by potential
	Skipped    []Skipped `json:"skipped"`
	Overall    Score     `json:"overall"`
	TrainRows  int       `json:"train_rows"`
	TestRows   int       `json:"test_rows"`
	Validation int       `json:"validation_rows"`
}

// Config controls an evaluation run
type Config struct {
	Split          SplitConfig
	MinTestSamples int
}

// Evaluator fits one model on every ticker's training block and scores each ticker's test block (S4)
// ⭐ SSOT: 평가/랭킹은 여기서만
type Evaluator struct {
	model  Regressor
	cfg    Config
	logger *logger.Logger
}

// NewEvaluator creates an evaluator
func NewEvaluator(model Regressor, cfg Config, log *logger.Logger) *Evaluator {
	if cfg.Split.Ratio == 0 {
		cfg.Split.Ratio = DefaultRatio
	}
	if cfg.MinTestSamples <= 0 {
		cfg.MinTestSamples = MinTestSamples
	}
	return &Evaluator{model: model, cfg: cfg, logger: log.WithField("module", "s4_evaluate")}
}

// Evaluate partitions the dataset, fits the model and ranks predictors
func (e *Evaluator) Evaluate(ctx context.Context, ds *contracts.Dataset) (*Report, error) {
	part, err := Split(ds, e.cfg.Split)
	if err != nil {
		return nil, err
	}
	if len(part.Train) == 0 {
		return nil, fmt.Errorf("no training rows to fit")
	}

	X, y := matrix(part.Train)
	start := time.Now()
	if err := e.model.Fit(X, y); err != nil {
		return nil, fmt.Errorf("fit %s: %w", e.model.Name(), err)
	}
	e.logger.WithFields(map[string]interface{}{
		"model":   e.model.Name(),
		"train":   len(part.Train),
		"test":    len(part.Test),
		"elapsed": time.Since(start).String(),
	}).Info("model fitted")

	report := &Report{
		Model:      e.model.Name(),
		Results:    []Result{},
		Skipped:    []Skipped{},
		TrainRows:  len(part.Train),
		TestRows:   len(part.Test),
		Validation: len(part.Validation),
	}

	var allY, allPred []float64
	for _, p := range ds.Predictors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := p.Symbol.String()

		if p.HasNaN() {
			report.Skipped = append(report.Skipped, Skipped{Symbol: key, Reason: "nan_predictor"})
			continue
		}
		test := part.TestBySymbol[key]
		if len(test) < e.cfg.MinTestSamples {
			report.Skipped = append(report.Skipped, Skipped{Symbol: key, Reason: "too_few_test_samples"})
			continue
		}

		tX, tY := matrix(test)
		preds, err := e.predictAll(tX)
		if err != nil {
			return nil, err
		}
		prediction, err := e.model.Predict(p.Values)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", key, err)
		}
		allY = append(allY, tY...)
		allPred = append(allPred, preds...)

		s := ScorePredictions(tY, preds)
		report.Results = append(report.Results, Result{
			Symbol:       key,
			PredictedAt:  p.Date,
			Prediction:   prediction,
			Volatility:   s.Volatility,
			MAE:          s.MAE,
			Alpha:        s.Alpha,
			VarScore:     s.VarScore,
			Potential:    Potential(prediction, s.VarScore, s.Alpha),
			TrainSamples: part.TrainBySymbol[key],
			TestSamples:  len(test),
		})
	}

	Rank(report.Results)
	report.Overall = ScorePredictions(allY, allPred)

	e.logger.WithFields(map[string]interface{}{
		"scored":  len(report.Results),
		"skipped": len(report.Skipped),
		"alpha":   report.Overall.Alpha,
	}).Info("evaluation finished")

	return report, nil
}

func (e *Evaluator) predictAll(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		v, err := e.model.Predict(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func matrix(rows []contracts.FeatureRow) ([][]float64, []float64) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		X[i] = r.Values
		y[i] = r.Future
	}
	return X, y
}
