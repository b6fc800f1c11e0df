// Package regression holds the closed set of regressors the forecast selector chooses from.
package regression

import (
	"errors"
	"fmt"
)

// Kind names a regression strategy.
type Kind string

const (
	KindRandomForest     Kind = "random_forest"
	KindGradientBoosting Kind = "gradient_boosting"
	KindLinear           Kind = "linear"
	// KindBaseline is the naive constant fallback; it is never a candidate.
	KindBaseline Kind = "baseline"
)

// Candidates returns the selectable kinds in declared order. Ties go to the earliest.
func Candidates() []Kind {
	return []Kind{KindRandomForest, KindGradientBoosting, KindLinear}
}

var (
	ErrUnknownKind     = errors.New("unknown regressor kind")
	ErrNotFitted       = errors.New("regressor not fitted")
	ErrShape           = errors.New("shape mismatch")
	ErrUndefinedScore  = errors.New("r2 undefined for constant targets")
	ErrSingularProblem = errors.New("normal equations not positive definite")
)

// Regressor is the capability every strategy implements.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	Score(X [][]float64, y []float64) (float64, error)
}

// Params sizes the strategies. Seed drives every random choice.
type Params struct {
	Trees        int
	Stages       int
	LearningRate float64
	BoostDepth   int
	Ridge        float64
	Seed         uint64
}

func DefaultParams() Params {
	return Params{
		Trees:        100,
		Stages:       100,
		LearningRate: 0.1,
		BoostDepth:   3,
		Ridge:        1e-6,
		Seed:         42,
	}
}

// New builds an unfitted regressor of kind.
func New(kind Kind, p Params) (Regressor, error) {
	switch kind {
	case KindRandomForest:
		return NewRandomForest(p.Trees, p.Seed), nil
	case KindGradientBoosting:
		return NewGradientBoosting(p.Stages, p.LearningRate, p.BoostDepth), nil
	case KindLinear:
		return NewLinear(p.Ridge), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

func checkXY(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("%w: empty design matrix", ErrShape)
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrShape, len(X), len(y))
	}
	return checkX(X, len(X[0]))
}

func checkX(X [][]float64, width int) (int, error) {
	if width == 0 {
		return 0, fmt.Errorf("%w: zero-width rows", ErrShape)
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), width)
		}
	}
	return width, nil
}

func score(r Regressor, X [][]float64, y []float64) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return R2(y, pred)
}
