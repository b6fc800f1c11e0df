package regression

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MinTrendR2 is the share of target variance a line must explain to be kept as a trend.
// Below it the trend is flat at the mean and the regressor sees the whole signal.
const MinTrendR2 = 0.1

// LinearTrend is target ~ Intercept + Slope*t over a day index t.
type LinearTrend struct {
	Intercept float64
	Slope     float64
}

// FitTrend fits a least-squares line. With fewer than two distinct t, or a line explaining
// less than MinTrendR2 of the variance, it is flat at the mean.
func FitTrend(t, y []float64) LinearTrend {
	if len(t) == 0 || len(t) != len(y) {
		return LinearTrend{}
	}
	distinct := false
	for _, v := range t[1:] {
		if v != t[0] {
			distinct = true
			break
		}
	}
	if !distinct {
		return LinearTrend{Intercept: stat.Mean(y, nil)}
	}
	alpha, beta := stat.LinearRegression(t, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return LinearTrend{Intercept: stat.Mean(y, nil)}
	}
	if r2 := stat.RSquared(t, y, nil, alpha, beta); !math.IsNaN(r2) && r2 < MinTrendR2 {
		return LinearTrend{Intercept: stat.Mean(y, nil)}
	}
	return LinearTrend{Intercept: alpha, Slope: beta}
}

func (l LinearTrend) At(t float64) float64 { return l.Intercept + l.Slope*t }
