package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Standardizer centres and scales columns with statistics frozen at fit time.
// The zero value is not usable; build one with FitStandardizer.
type Standardizer struct {
	mean  []float64
	scale []float64
}

// FitStandardizer learns per-column mean and population deviation.
// Zero-variance columns get scale 1.
func FitStandardizer(X [][]float64) (Standardizer, error) {
	if len(X) == 0 {
		return Standardizer{}, fmt.Errorf("%w: empty design matrix", ErrShape)
	}
	width, err := checkX(X, len(X[0]))
	if err != nil {
		return Standardizer{}, err
	}
	s := Standardizer{mean: make([]float64, width), scale: make([]float64, width)}
	col := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		m, v := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(v)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		s.mean[j], s.scale[j] = m, sd
	}
	return s, nil
}

func (s Standardizer) Width() int { return len(s.mean) }

// Transform returns a standardized copy of X.
func (s Standardizer) Transform(X [][]float64) ([][]float64, error) {
	if s.Width() == 0 {
		return nil, fmt.Errorf("standardizer: %w", ErrNotFitted)
	}
	if _, err := checkX(X, s.Width()); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.mean[j]) / s.scale[j]
		}
		out[i] = r
	}
	return out, nil
}

// Mean returns a copy of the fitted column means.
func (s Standardizer) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns a copy of the fitted column scales.
func (s Standardizer) Scale() []float64 { return append([]float64(nil), s.scale...) }
