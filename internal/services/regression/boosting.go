package regression

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// GradientBoosting fits shallow trees to squared-loss residuals, starting from the target mean.
type GradientBoosting struct {
	stages int
	rate   float64
	depth  int
	width  int
	init   float64
	trees  []*cart
}

var _ Regressor = (*GradientBoosting)(nil)

func NewGradientBoosting(stages int, rate float64, depth int) *GradientBoosting {
	if stages <= 0 {
		stages = 100
	}
	if rate <= 0 {
		rate = 0.1
	}
	if depth <= 0 {
		depth = 3
	}
	return &GradientBoosting{stages: stages, rate: rate, depth: depth}
}

func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	width, err := checkXY(X, y)
	if err != nil {
		return fmt.Errorf("gradient boosting: %w", err)
	}
	n := len(X)
	g.width = width
	g.init = stat.Mean(y, nil)
	g.trees = make([]*cart, 0, g.stages)

	all := make([]int, n)
	current := make([]float64, n)
	for i := range all {
		all[i] = i
		current[i] = g.init
	}
	residual := make([]float64, n)
	for s := 0; s < g.stages; s++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		t := newCart(g.depth)
		t.fit(X, residual, all)
		for i, row := range X {
			current[i] += g.rate * t.predictRow(row)
		}
		g.trees = append(g.trees, t)
	}
	return nil
}

func (g *GradientBoosting) Predict(X [][]float64) ([]float64, error) {
	if g.trees == nil {
		return nil, fmt.Errorf("gradient boosting: %w", ErrNotFitted)
	}
	if _, err := checkX(X, g.width); err != nil {
		return nil, fmt.Errorf("gradient boosting: %w", err)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := g.init
		for _, t := range g.trees {
			v += g.rate * t.predictRow(row)
		}
		out[i] = v
	}
	return out, nil
}

func (g *GradientBoosting) Score(X [][]float64, y []float64) (float64, error) {
	return score(g, X, y)
}
