package forecast

import (
	"math/rand/v2"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/services/features"
	"TrendCast/internal/services/regression"
	applogger "TrendCast/pkg/logger"
)

const splitStream = 0x5eed

// Selector trains every candidate on a seeded split and keeps the best held-out R2.
type Selector struct {
	params       regression.Params
	testFraction float64
	candidates   []regression.Kind
	l            *applogger.Logger
}

type SelectorOption func(*Selector)

func WithParams(p regression.Params) SelectorOption {
	return func(s *Selector) { s.params = p }
}

func WithTestFraction(f float64) SelectorOption {
	return func(s *Selector) {
		if f > 0 && f < 1 {
			s.testFraction = f
		}
	}
}

// WithCandidates replaces the candidate list; order decides ties.
func WithCandidates(kinds ...regression.Kind) SelectorOption {
	return func(s *Selector) {
		if len(kinds) > 0 {
			s.candidates = append([]regression.Kind(nil), kinds...)
		}
	}
}

func WithSelectorLogger(l *applogger.Logger) SelectorOption {
	return func(s *Selector) { s.l = l }
}

func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		params:       regression.DefaultParams(),
		testFraction: 0.2,
		candidates:   regression.Candidates(),
		l:            applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Train is deterministic for a fixed seed, entity and input.
func (s *Selector) Train(entityID string, set *features.Set, y []float64) (*TrainedModel, error) {
	start := time.Now()
	if set == nil || set.Len() != len(y) {
		return nil, &models.TrainingFailureError{EntityID: entityID, Causes: map[string]string{"input": "rows and targets differ"}}
	}
	seed := EntitySeed(s.params.Seed, entityID)
	train, test, err := regression.Split(set.Len(), s.testFraction, rand.New(rand.NewPCG(seed, splitStream)))
	if err != nil {
		return nil, &models.TrainingFailureError{EntityID: entityID, Causes: map[string]string{"split": err.Error()}}
	}

	testX := set.Rows(test)
	testDates := make([]time.Time, len(test))
	testY := make([]float64, len(test))
	for k, i := range test {
		testDates[k] = set.Dates[i]
		testY[k] = y[i]
	}

	p := s.params
	p.Seed = seed
	origin := set.Dates[0]
	causes := make(map[string]string)
	var best *TrainedModel
	for _, kind := range s.candidates {
		m, err := fit(entityID, kind, p, set, y, train, origin)
		if err != nil {
			causes[string(kind)] = err.Error()
			continue
		}
		pred, err := m.predictRows(testX, testDates)
		if err != nil {
			causes[string(kind)] = err.Error()
			continue
		}
		r2, err := regression.R2(testY, pred)
		if err != nil {
			causes[string(kind)] = err.Error()
			continue
		}
		m.heldOutR2 = r2
		s.l.Debug("selector candidate scored",
			applogger.String("entity_id", entityID),
			applogger.String("kind", string(kind)),
			applogger.Float64("held_out_r2", r2),
		)
		if best == nil || r2 > best.heldOutR2 {
			best = m
		}
	}
	if best == nil {
		return nil, &models.TrainingFailureError{EntityID: entityID, Causes: causes}
	}
	s.l.Info("selector model chosen",
		applogger.String("entity_id", entityID),
		applogger.String("kind", string(best.kind)),
		applogger.Float64("held_out_r2", best.heldOutR2),
		applogger.Int("train_rows", len(train)),
		applogger.Int("test_rows", len(test)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return best, nil
}
