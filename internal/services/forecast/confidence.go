package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/services/features"
	"TrendCast/internal/services/regression"
	applogger "TrendCast/pkg/logger"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const (
	minConfidence     = 0.1
	maxConfidence     = 0.95
	fullHistoryDays   = 365
	bootstrapCoverage = 0.90
	fallbackCoverage  = 0.80
	fallbackBand      = 0.2
	noiseFraction     = 0.1
	lowerPercentile   = 5
	upperPercentile   = 95
)

const bootstrapStream = 0xb007

var errBaselineModel = errors.New("baseline model has no resampling distribution")

// Estimator scores a trained model and derives bootstrap intervals around its forecast.
type Estimator struct {
	rounds  int
	workers int
	trees   int
	l       *applogger.Logger
}

type EstimatorOption func(*Estimator)

// WithRounds sets the number of bootstrap iterations (at least 2).
func WithRounds(n int) EstimatorOption {
	return func(e *Estimator) {
		if n >= 2 {
			e.rounds = n
		}
	}
}

func WithWorkers(n int) EstimatorOption {
	return func(e *Estimator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithBootstrapTrees sizes the forests refit in each iteration.
func WithBootstrapTrees(n int) EstimatorOption {
	return func(e *Estimator) {
		if n > 0 {
			e.trees = n
		}
	}
}

func WithEstimatorLogger(l *applogger.Logger) EstimatorOption {
	return func(e *Estimator) { e.l = l }
}

func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{rounds: 100, workers: 4, trees: 50, l: applogger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score combines held-out fit, history length and target stability into [0.1, 0.95].
func (e *Estimator) Score(m *TrainedModel, targets []float64) float64 {
	if m == nil || len(targets) == 0 {
		return minConfidence
	}
	r2 := math.Max(0, m.HeldOutR2())
	quality := math.Min(1, float64(len(targets))/fullHistoryDays)
	mean := stat.Mean(targets, nil)
	sd := 0.0
	if len(targets) > 1 {
		sd = stat.StdDev(targets, nil)
	}
	stability := 1 / (1 + sd/math.Max(1, mean))
	return clamp(r2*quality*stability, minConfidence, maxConfidence)
}

// Interval runs a parametric bootstrap: targets are perturbed with Gaussian noise,
// a fresh model of the same kind is refit and the horizon re-predicted.
// On any failure it returns the ±20% fallback band together with a *models.DegradedError.
func (e *Estimator) Interval(ctx context.Context, m *TrainedModel, hist *features.Set, y []float64, future *features.Set, point []int) (models.ConfidenceInterval, error) {
	if m == nil {
		return Fallback(point, "no model"), &models.DegradedError{Cause: errors.New("nil model")}
	}
	if m.Kind() == regression.KindBaseline {
		return Fallback(point, errBaselineModel.Error()), &models.DegradedError{EntityID: m.entityID, Cause: errBaselineModel}
	}
	if hist == nil || future == nil || future.Len() != len(point) || hist.Len() != len(y) {
		err := fmt.Errorf("bootstrap inputs inconsistent")
		return Fallback(point, err.Error()), &models.DegradedError{EntityID: m.entityID, Cause: err}
	}

	start := time.Now()
	samples, err := e.resample(ctx, m, hist, y, future)
	if err != nil {
		e.l.Warn("confidence degraded",
			applogger.String("entity_id", m.entityID),
			applogger.Error(err),
		)
		return Fallback(point, err.Error()), &models.DegradedError{EntityID: m.entityID, Cause: err}
	}

	ci := models.ConfidenceInterval{
		Lower:    make([]int, len(point)),
		Upper:    make([]int, len(point)),
		Coverage: bootstrapCoverage,
	}
	col := make([]float64, len(samples))
	for d := range point {
		for i, s := range samples {
			col[i] = s[d]
		}
		sort.Float64s(col)
		lo := int(math.Max(0, Percentile(col, lowerPercentile)))
		hi := int(math.Max(0, Percentile(col, upperPercentile)))
		ci.Lower[d] = min(lo, point[d])
		ci.Upper[d] = max(hi, point[d])
	}
	e.l.Debug("confidence interval ready",
		applogger.String("entity_id", m.entityID),
		applogger.Int("rounds", e.rounds),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return ci, nil
}

func (e *Estimator) resample(ctx context.Context, m *TrainedModel, hist *features.Set, y []float64, future *features.Set) ([][]float64, error) {
	sd := 0.0
	if len(y) > 1 {
		sd = stat.StdDev(y, nil)
	}
	noise := noiseFraction * sd
	rows := make([]int, hist.Len())
	for i := range rows {
		rows[i] = i
	}
	p := m.Params()
	p.Trees = e.trees

	samples := make([][]float64, e.rounds)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.rounds; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewPCG(p.Seed, bootstrapStream+uint64(i)))
			noisy := make([]float64, len(y))
			for k, v := range y {
				noisy[k] = v + rnd.NormFloat64()*noise
			}
			rp := p
			rp.Seed = rnd.Uint64()
			bm, err := fit(m.entityID, m.kind, rp, hist, noisy, rows, m.origin)
			if err != nil {
				return fmt.Errorf("bootstrap round %d: %w", i, err)
			}
			out, err := bm.Predict(future)
			if err != nil {
				return fmt.Errorf("bootstrap round %d: %w", i, err)
			}
			for _, v := range out {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("bootstrap round %d: non-finite prediction", i)
				}
			}
			samples[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// Fallback is the fixed ±20% band used when the bootstrap cannot run.
func Fallback(point []int, reason string) models.ConfidenceInterval {
	ci := models.ConfidenceInterval{
		Lower:          make([]int, len(point)),
		Upper:          make([]int, len(point)),
		Coverage:       fallbackCoverage,
		Degraded:       true,
		DegradedReason: reason,
	}
	for i, p := range point {
		ci.Lower[i] = int(float64(p) * (1 - fallbackBand))
		ci.Upper[i] = int(float64(p) * (1 + fallbackBand))
	}
	return ci
}

// Percentile interpolates linearly between closest ranks of sorted values,
// matching the common "linear" definition (rank = p/100*(n-1)).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
