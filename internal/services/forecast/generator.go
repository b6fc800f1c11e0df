package forecast

import (
	"errors"
	"fmt"
	"math"

	"TrendCast/internal/services/features"
)

// Generator turns model predictions over future vectors into a ForecastSequence.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

// Forecast truncates each prediction toward zero and floors it at zero.
// The result has exactly one entry per future row.
func (g *Generator) Forecast(m *TrainedModel, future *features.Set) ([]int, error) {
	if m == nil {
		return nil, errors.New("forecast: nil model")
	}
	if future == nil || future.Len() == 0 {
		return nil, fmt.Errorf("forecast %s: empty horizon", m.entityID)
	}
	preds, err := m.Predict(future)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", m.entityID, err)
	}
	if len(preds) != future.Len() {
		return nil, fmt.Errorf("forecast %s: %d predictions for %d days", m.entityID, len(preds), future.Len())
	}
	out := make([]int, len(preds))
	for i, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("forecast %s: non-finite prediction at day %d", m.entityID, i+1)
		}
		if p < 0 {
			p = 0
		}
		out[i] = int(p)
	}
	return out, nil
}
