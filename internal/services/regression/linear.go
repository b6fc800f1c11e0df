package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is ordinary least squares with an intercept, solved through the
// normal equations with a vanishing ridge term on the diagonal.
type Linear struct {
	ridge     float64
	intercept float64
	coef      []float64
}

var _ Regressor = (*Linear)(nil)

func NewLinear(ridge float64) *Linear {
	if ridge < 0 {
		ridge = 0
	}
	return &Linear{ridge: ridge}
}

func (l *Linear) Fit(X [][]float64, y []float64) error {
	width, err := checkXY(X, y)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}
	p := width + 1 // column 0 is the intercept
	ata := mat.NewSymDense(p, nil)
	atb := mat.NewVecDense(p, nil)
	row := make([]float64, p)
	for i, x := range X {
		row[0] = 1
		copy(row[1:], x)
		for a := 0; a < p; a++ {
			atb.SetVec(a, atb.AtVec(a)+row[a]*y[i])
			for b := a; b < p; b++ {
				ata.SetSym(a, b, ata.At(a, b)+row[a]*row[b])
			}
		}
	}
	for a := 1; a < p; a++ {
		ata.SetSym(a, a, ata.At(a, a)+l.ridge)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ata); !ok {
		return fmt.Errorf("linear: %w", ErrSingularProblem)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, atb); err != nil {
		return fmt.Errorf("linear solve: %w", err)
	}
	l.intercept = w.AtVec(0)
	l.coef = make([]float64, width)
	for j := range l.coef {
		l.coef[j] = w.AtVec(j + 1)
	}
	return nil
}

func (l *Linear) Predict(X [][]float64) ([]float64, error) {
	if l.coef == nil {
		return nil, fmt.Errorf("linear: %w", ErrNotFitted)
	}
	if _, err := checkX(X, len(l.coef)); err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := l.intercept
		for j, c := range l.coef {
			v += c * row[j]
		}
		out[i] = v
	}
	return out, nil
}

func (l *Linear) Score(X [][]float64, y []float64) (float64, error) {
	return score(l, X, y)
}

// Coefficients returns the intercept and a copy of the slopes.
func (l *Linear) Coefficients() (float64, []float64) {
	return l.intercept, append([]float64(nil), l.coef...)
}
