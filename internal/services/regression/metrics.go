package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// R2 is the coefficient of determination of pred against y. It may be negative.
func R2(y, pred []float64) (float64, error) {
	if len(y) == 0 || len(y) != len(pred) {
		return 0, fmt.Errorf("%w: %d targets, %d predictions", ErrShape, len(y), len(pred))
	}
	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		d := y[i] - pred[i]
		ssRes += d * d
		m := y[i] - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		return 0, ErrUndefinedScore
	}
	r2 := 1 - ssRes/ssTot
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0, fmt.Errorf("r2 not finite")
	}
	return r2, nil
}
