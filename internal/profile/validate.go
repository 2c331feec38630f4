package profile

import (
	"fmt"
	"regexp"

	"github.com/wonny/stox/backend/internal/s1_clean"
	"github.com/wonny/stox/backend/internal/s4_evaluate"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var marketCode = regexp.MustCompile(`^[A-Z0-9_]+$`)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Dataset ===
	if p.Dataset.Lookback < 2 {
		return ValidationError{"dataset.lookback", "must be >= 2"}
	}
	if p.Dataset.Lookfwd < 1 {
		return ValidationError{"dataset.lookfwd", "must be >= 1"}
	}
	if _, err := s1_clean.ParseRule(p.Dataset.Resample); err != nil {
		return ValidationError{"dataset.resample", err.Error()}
	}
	if _, err := p.BuildOptions(); err != nil {
		return err
	}

	// === Universe ===
	for i, m := range p.Universe.Markets {
		if !marketCode.MatchString(m) {
			return ValidationError{fmt.Sprintf("universe.markets[%d]", i), "must be an upper-case market code"}
		}
	}
	if _, err := p.Symbols(); err != nil {
		return err
	}
	for m, idx := range p.Universe.Indices {
		if !marketCode.MatchString(m) {
			return ValidationError{"universe.indices", fmt.Sprintf("bad market code %q", m)}
		}
		if idx == "" {
			return ValidationError{"universe.indices." + m, "index ticker required"}
		}
	}

	// === Evaluation ===
	if p.Evaluation.Ratio < 2 {
		return ValidationError{"evaluation.ratio", "must be >= 2"}
	}
	if p.Evaluation.MinTestSamples < 1 {
		return ValidationError{"evaluation.min_test_samples", "must be >= 1"}
	}
	if _, err := s4_evaluate.NewRegressor(p.Evaluation.Regressor, p.Evaluation.K, p.Evaluation.Lambda); err != nil {
		return ValidationError{"evaluation.regressor", err.Error()}
	}
	if p.Evaluation.K < 0 {
		return ValidationError{"evaluation.k", "must be >= 0"}
	}
	if p.Evaluation.Lambda < 0 {
		return ValidationError{"evaluation.lambda", "must be >= 0"}
	}

	return nil
}

// Warn returns non-fatal recommendations
func Warn(p *Profile) []Warning {
	var warnings []Warning

	// 컬럼 수는 lookback에 비례 (리본 + 지표)
	if p.Dataset.Lookback > 120 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_DATASET",
			Message: fmt.Sprintf("lookback %d produces several thousand columns", p.Dataset.Lookback),
		})
	}

	if p.Dataset.Lookfwd > p.Dataset.Lookback {
		warnings = append(warnings, Warning{
			Code:    "EMBARGO_SHORT",
			Message: "lookfwd exceeds lookback; the train/test embargo no longer covers the label horizon",
		})
	}

	if len(p.Universe.Markets) == 0 && len(p.Universe.Tickers) == 0 {
		warnings = append(warnings, Warning{
			Code:    "EMPTY_UNIVERSE",
			Message: "no markets or tickers configured; every listed ticker will be built",
		})
	}

	return warnings
}
