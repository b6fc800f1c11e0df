// Package forecast selects a regressor per entity, projects it forward and
// estimates how far the projection can be trusted.
package forecast

import (
	"fmt"
	"hash/fnv"
	"time"

	"TrendCast/internal/services/features"
	"TrendCast/internal/services/regression"
	"TrendCast/pkg/util"

	"gonum.org/v1/gonum/stat"
)

// recentWindow is the number of trailing targets behind the naive baseline level.
const recentWindow = 30

// TrainedModel is a fitted predictor bound to one entity.
// It is immutable once returned and owns its standardization parameters.
type TrainedModel struct {
	entityID  string
	kind      regression.Kind
	params    regression.Params
	origin    time.Time
	trend     regression.LinearTrend
	scaler    regression.Standardizer
	regressor regression.Regressor
	features  []string
	heldOutR2 float64
	trainRows int
	level     float64 // baseline only
}

func (m *TrainedModel) EntityID() string { return m.entityID }
func (m *TrainedModel) Kind() regression.Kind { return m.kind }
func (m *TrainedModel) HeldOutR2() float64 { return m.heldOutR2 }
func (m *TrainedModel) TrainingPoints() int { return m.trainRows }
func (m *TrainedModel) Trend() regression.LinearTrend { return m.trend }
func (m *TrainedModel) Standardizer() regression.Standardizer { return m.scaler }
func (m *TrainedModel) Params() regression.Params { return m.params }

// FeatureNames returns a copy of the feature order the model was fit on.
func (m *TrainedModel) FeatureNames() []string { return append([]string(nil), m.features...) }

// Predict returns raw (unrounded) predictions for every row of set.
func (m *TrainedModel) Predict(set *features.Set) ([]float64, error) {
	return m.predictRows(set.X, set.Dates)
}

func (m *TrainedModel) predictRows(X [][]float64, dates []time.Time) ([]float64, error) {
	if len(X) != len(dates) {
		return nil, fmt.Errorf("predict: %d rows, %d dates", len(X), len(dates))
	}
	out := make([]float64, len(X))
	if m.kind == regression.KindBaseline {
		for i := range out {
			out[i] = m.level
		}
		return out, nil
	}
	for i, row := range X {
		if len(row) != len(m.features) {
			return nil, fmt.Errorf("predict: row %d has %d features, model expects %d", i, len(row), len(m.features))
		}
	}
	scaled, err := m.scaler.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	res, err := m.regressor.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	for i := range res {
		out[i] = res[i] + m.trend.At(dayIndex(m.origin, dates[i]))
	}
	return out, nil
}

// NewBaseline is the naive fallback: a constant at the mean of the last recentWindow targets.
func NewBaseline(entityID string, set *features.Set, y []float64) *TrainedModel {
	tail := y
	if len(tail) > recentWindow {
		tail = tail[len(tail)-recentWindow:]
	}
	level := 0.0
	if len(tail) > 0 {
		level = stat.Mean(tail, nil)
	}
	m := &TrainedModel{entityID: entityID, kind: regression.KindBaseline, level: level, trainRows: len(y)}
	if set != nil {
		m.features = append([]string(nil), set.Schema.Names...)
	}
	return m
}

// fit trains kind on rows: a linear day trend first, then the regressor on the
// standardized features against the detrended residual.
func fit(entityID string, kind regression.Kind, p regression.Params, set *features.Set, y []float64, rows []int, origin time.Time) (*TrainedModel, error) {
	t := make([]float64, len(rows))
	target := make([]float64, len(rows))
	for k, i := range rows {
		t[k] = dayIndex(origin, set.Dates[i])
		target[k] = y[i]
	}
	trend := regression.FitTrend(t, target)
	residual := make([]float64, len(rows))
	for k := range rows {
		residual[k] = target[k] - trend.At(t[k])
	}

	X := set.Rows(rows)
	scaler, err := regression.FitStandardizer(X)
	if err != nil {
		return nil, err
	}
	scaled, err := scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	reg, err := regression.New(kind, p)
	if err != nil {
		return nil, err
	}
	if err := reg.Fit(scaled, residual); err != nil {
		return nil, err
	}
	return &TrainedModel{
		entityID:  entityID,
		kind:      kind,
		params:    p,
		origin:    origin,
		trend:     trend,
		scaler:    scaler,
		regressor: reg,
		features:  append([]string(nil), set.Schema.Names...),
		trainRows: len(rows),
	}, nil
}

func dayIndex(origin, d time.Time) float64 {
	return float64(util.DaysBetween(origin, d))
}

// EntitySeed mixes the configured seed with the entity id so entities get
// independent but reproducible streams.
func EntitySeed(seed uint64, entityID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(entityID))
	return seed ^ h.Sum64()
}
