package regression

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func grid(n int, f func(x float64) float64) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / 10
		X[i] = []float64{x}
		y[i] = f(x)
	}
	return X, y
}

func TestR2(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	if r2, err := R2(y, y); err != nil || r2 != 1 {
		t.Fatalf("perfect fit r2=%v err=%v", r2, err)
	}
	if r2, err := R2(y, []float64{2.5, 2.5, 2.5, 2.5}); err != nil || r2 != 0 {
		t.Fatalf("mean predictor r2=%v err=%v", r2, err)
	}
	if r2, _ := R2(y, []float64{4, 3, 2, 1}); r2 >= 0 {
		t.Fatalf("reversed predictor should be negative, got %v", r2)
	}
	if _, err := R2([]float64{5, 5, 5}, []float64{5, 5, 5}); !errors.Is(err, ErrUndefinedScore) {
		t.Fatalf("constant targets: %v", err)
	}
	if _, err := R2(y, y[:2]); !errors.Is(err, ErrShape) {
		t.Fatalf("length mismatch: %v", err)
	}
}

func TestStandardizer(t *testing.T) {
	X := [][]float64{{1, 7}, {3, 7}, {5, 7}}
	s, err := FitStandardizer(X)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if s.Scale()[1] != 1 {
		t.Fatalf("zero variance column scale %v", s.Scale()[1])
	}
	out, err := s.Transform([][]float64{{3, 7}, {5, 8}})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out[0][0] != 0 || out[0][1] != 0 || out[1][1] != 1 {
		t.Fatalf("transform %v", out)
	}
	if math.Abs(out[1][0]-math.Sqrt(1.5)) > 1e-12 {
		t.Fatalf("scaled value %v", out[1][0])
	}
	if _, err := s.Transform([][]float64{{1}}); !errors.Is(err, ErrShape) {
		t.Fatalf("width mismatch: %v", err)
	}
	// the fitted value is not affected by mutating returned copies
	s.Mean()[0] = 100
	if s.Mean()[0] != 3 {
		t.Fatalf("standardizer mutated through accessor")
	}
	if _, err := (Standardizer{}).Transform(X); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("zero standardizer: %v", err)
	}
}

func TestSplitDeterministic(t *testing.T) {
	train, test, err := Split(101, 0.2, rand.New(rand.NewPCG(7, 1)))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(test) != 21 || len(train) != 80 {
		t.Fatalf("sizes train=%d test=%d", len(train), len(test))
	}
	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d in both partitions", i)
		}
		seen[i] = true
	}
	train2, test2, _ := Split(101, 0.2, rand.New(rand.NewPCG(7, 1)))
	for i := range test {
		if test[i] != test2[i] {
			t.Fatalf("split not reproducible")
		}
	}
	_ = train2
	if _, _, err := Split(1, 0.2, rand.New(rand.NewPCG(1, 1))); err == nil {
		t.Fatalf("expected error for a single row")
	}
}

func TestLinearRecoversCoefficients(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 3))
	X := make([][]float64, 50)
	y := make([]float64, 50)
	for i := range X {
		a, b := rnd.Float64()*10, rnd.Float64()*10
		X[i] = []float64{a, b}
		y[i] = 3 + 2*a - b
	}
	l := NewLinear(1e-9)
	if err := l.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	b0, coef := l.Coefficients()
	if math.Abs(b0-3) > 1e-4 || math.Abs(coef[0]-2) > 1e-4 || math.Abs(coef[1]+1) > 1e-4 {
		t.Fatalf("coefficients %v %v", b0, coef)
	}
	r2, err := l.Score(X, y)
	if err != nil || r2 < 0.999999 {
		t.Fatalf("score %v err %v", r2, err)
	}
}

func TestLinearHandlesConstantColumn(t *testing.T) {
	X := [][]float64{{1, 0}, {2, 0}, {3, 0}, {4, 0}}
	y := []float64{2, 4, 6, 8}
	l := NewLinear(1e-6)
	if err := l.Fit(X, y); err != nil {
		t.Fatalf("fit with zero column: %v", err)
	}
	pred, _ := l.Predict([][]float64{{5, 0}})
	if math.Abs(pred[0]-10) > 1e-3 {
		t.Fatalf("prediction %v", pred[0])
	}
}

func TestForestFitsStepAndIsDeterministic(t *testing.T) {
	X, y := grid(60, func(x float64) float64 {
		if x < 3 {
			return 10
		}
		return 50
	})
	a := NewRandomForest(20, 11)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	pred, err := a.Predict([][]float64{{0.5}, {5.5}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(pred[0]-10) > 1 || math.Abs(pred[1]-50) > 1 {
		t.Fatalf("step predictions %v", pred)
	}
	b := NewRandomForest(20, 11)
	_ = b.Fit(X, y)
	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("same seed gave different forests at %d", i)
		}
	}
}

func TestBoostingFitsCurve(t *testing.T) {
	X, y := grid(80, func(x float64) float64 { return x * x })
	g := NewGradientBoosting(100, 0.1, 3)
	if err := g.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	r2, err := g.Score(X, y)
	if err != nil || r2 < 0.95 {
		t.Fatalf("train r2 %v err %v", r2, err)
	}
}

func TestUnfittedAndUnknown(t *testing.T) {
	if _, err := New(Kind("svm"), DefaultParams()); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown kind: %v", err)
	}
	for _, k := range Candidates() {
		r, err := New(k, DefaultParams())
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		if _, err := r.Predict([][]float64{{1}}); !errors.Is(err, ErrNotFitted) {
			t.Fatalf("%s unfitted predict: %v", k, err)
		}
	}
	if got := Candidates(); got[0] != KindRandomForest || got[2] != KindLinear {
		t.Fatalf("candidate order %v", got)
	}
}

func TestFitTrend(t *testing.T) {
	tr := FitTrend([]float64{0, 1, 2, 3}, []float64{5, 7, 9, 11})
	if math.Abs(tr.Slope-2) > 1e-12 || math.Abs(tr.Intercept-5) > 1e-12 {
		t.Fatalf("trend %+v", tr)
	}
	flat := FitTrend([]float64{4, 4}, []float64{1, 3})
	if flat.Slope != 0 || flat.Intercept != 2 {
		t.Fatalf("flat trend %+v", flat)
	}
}

func TestFitTrendIgnoresWeeklyCycle(t *testing.T) {
	var ts, ys []float64
	for d := 0; d < 300; d++ {
		if d%5 == 4 {
			continue // uneven sampling tilts the raw least-squares line
		}
		ts = append(ts, float64(d))
		if d%7 < 3 {
			ys = append(ys, 1000)
		} else {
			ys = append(ys, 0)
		}
	}
	tr := FitTrend(ts, ys)
	if tr.Slope != 0 || math.Abs(tr.Intercept-stat.Mean(ys, nil)) > 1e-9 {
		t.Fatalf("weekly cycle produced trend %+v", tr)
	}
}
