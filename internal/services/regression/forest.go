package regression

import (
	"fmt"
	"math/rand/v2"
)

// RandomForest averages fully grown trees fit on bootstrap resamples of the rows.
type RandomForest struct {
	trees      int
	seed       uint64
	width      int
	estimators []*cart
}

var _ Regressor = (*RandomForest)(nil)

func NewRandomForest(trees int, seed uint64) *RandomForest {
	if trees <= 0 {
		trees = 100
	}
	return &RandomForest{trees: trees, seed: seed}
}

func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	width, err := checkXY(X, y)
	if err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	n := len(X)
	f.width = width
	f.estimators = make([]*cart, f.trees)
	idx := make([]int, n)
	for k := range f.estimators {
		// one stream per tree keeps trees independent of fit order
		rnd := rand.New(rand.NewPCG(f.seed, uint64(k)))
		for i := range idx {
			idx[i] = rnd.IntN(n)
		}
		t := newCart(0)
		t.fit(X, y, idx)
		f.estimators[k] = t
	}
	return nil
}

func (f *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(f.estimators) == 0 {
		return nil, fmt.Errorf("random forest: %w", ErrNotFitted)
	}
	if _, err := checkX(X, f.width); err != nil {
		return nil, fmt.Errorf("random forest: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		var s float64
		for _, t := range f.estimators {
			s += t.predictRow(row)
		}
		out[i] = s / float64(len(f.estimators))
	}
	return out, nil
}

func (f *RandomForest) Score(X [][]float64, y []float64) (float64, error) {
	return score(f, X, y)
}
