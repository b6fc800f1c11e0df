package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/services/features"
	"TrendCast/internal/services/forecast"
	"TrendCast/internal/services/regression"
	"TrendCast/internal/services/trend"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/util"

	"github.com/google/uuid"
)

// lowConfidence marks a forecast as high_uncertainty.
const lowConfidence = 0.3

// PipelineConfig sizes the models and sets history floors.
type PipelineConfig struct {
	HorizonDays      int
	MinDemandHistory int
	MinTrendHistory  int
	BatchWorkers     int
	Params           regression.Params
	BootstrapRounds  int
	BootstrapTrees   int
	BootstrapWorkers int
}

// ForecastPipeline runs synthesis, selection, generation, confidence and summary
// for one entity at a time. It holds no per-entity state.
type ForecastPipeline struct {
	store      domrepo.ObservationStore
	sentiment  domsvc.SentimentProvider
	metrics    domrepo.Metrics
	l          *applogger.Logger
	cfg        PipelineConfig
	selector   *forecast.Selector
	generator  *forecast.Generator
	estimator  *forecast.Estimator
	summarizer *trend.Summarizer
	now        func() time.Time
	newID      func() string
}

type PipelineOption func(*ForecastPipeline)

func WithSentiment(p domsvc.SentimentProvider) PipelineOption {
	return func(fp *ForecastPipeline) { fp.sentiment = p }
}

func WithMetrics(m domrepo.Metrics) PipelineOption {
	return func(fp *ForecastPipeline) {
		if m != nil {
			fp.metrics = m
		}
	}
}

func WithLogger(l *applogger.Logger) PipelineOption {
	return func(fp *ForecastPipeline) {
		if l != nil {
			fp.l = l
		}
	}
}

// WithClock fixes GeneratedAt, for tests.
func WithClock(now func() time.Time) PipelineOption {
	return func(fp *ForecastPipeline) { fp.now = now }
}

func WithPolicy(p trend.Policy) PipelineOption {
	return func(fp *ForecastPipeline) { fp.summarizer = trend.NewSummarizer(trend.WithPolicy(p)) }
}

func NewForecastPipeline(store domrepo.ObservationStore, cfg PipelineConfig, opts ...PipelineOption) *ForecastPipeline {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 30
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 1
	}
	if cfg.Params == (regression.Params{}) {
		cfg.Params = regression.DefaultParams()
	}
	fp := &ForecastPipeline{
		store:      store,
		metrics:    nopMetrics{},
		l:          applogger.Nop(),
		cfg:        cfg,
		generator:  forecast.NewGenerator(),
		summarizer: trend.NewSummarizer(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(fp)
	}
	fp.selector = forecast.NewSelector(
		forecast.WithParams(cfg.Params),
		forecast.WithSelectorLogger(fp.l),
	)
	fp.estimator = forecast.NewEstimator(
		forecast.WithRounds(cfg.BootstrapRounds),
		forecast.WithBootstrapTrees(cfg.BootstrapTrees),
		forecast.WithWorkers(cfg.BootstrapWorkers),
		forecast.WithEstimatorLogger(fp.l),
	)
	return fp
}

func (p *ForecastPipeline) Config() PipelineConfig { return p.cfg }

// PredictDemand forecasts one product over days (default horizon when <= 0).
func (p *ForecastPipeline) PredictDemand(ctx context.Context, entityID string, days int) (*models.ForecastRecord, error) {
	if days <= 0 {
		days = p.cfg.HorizonDays
	}
	records, err := p.store.Observations(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return p.runSeries(ctx, series{
		id:      entityID,
		kind:    models.KindProduct,
		records: records,
		min:     p.cfg.MinDemandHistory,
		horizon: days,
	})
}

// PredictMarket forecasts the aggregated category over months*30 days and attaches a market outlook.
func (p *ForecastPipeline) PredictMarket(ctx context.Context, category string, months int) (*models.ForecastRecord, error) {
	if months <= 0 {
		months = 6
	}
	raw, err := p.store.CategoryObservations(ctx, category)
	if err != nil {
		return nil, err
	}
	agg, err := features.AggregateCategory(category, raw)
	if err != nil {
		p.metrics.RecordError("malformed_record")
		return nil, err
	}
	rec, err := p.runSeries(ctx, series{
		id:            category,
		kind:          models.KindCategory,
		records:       agg,
		horizon:       months * 30,
		skipSentiment: true,
	})
	if err != nil {
		return nil, err
	}
	var sentiment []float64
	for _, r := range agg {
		if v, ok := r.Covariate(models.CovariateSentiment); ok {
			sentiment = append(sentiment, v)
		}
	}
	outlook := p.summarizer.Outlook(trend.NewMarketHistory(models.Targets(agg), sentiment), rec.Forecast)
	rec.Market = &outlook
	return rec, nil
}

type series struct {
	id      string
	kind    models.EntityKind
	records []models.ObservationRecord
	min     int
	horizon int

	// aggregated category rows carry the mean product sentiment already
	skipSentiment bool
}

func (p *ForecastPipeline) runSeries(ctx context.Context, s series) (*models.ForecastRecord, error) {
	start := time.Now()
	op := "forecast_" + string(s.kind)
	defer func() { p.metrics.RecordLatency(op, time.Since(start).Seconds()) }()

	records := s.records
	if p.sentiment != nil && !s.skipSentiment {
		enriched, err := p.sentiment.Enrich(ctx, s.id, records)
		if err != nil {
			p.l.Warn("sentiment enrichment skipped", applogger.String("entity_id", s.id), applogger.Error(err))
		} else {
			records = enriched
		}
	}

	synth := features.NewSynthesizer(s.kind, features.WithMinRecords(s.min))
	hist, y, err := synth.Historical(records)
	if err != nil {
		var ih *models.InsufficientHistoryError
		if errors.As(err, &ih) && ih.EntityID == "" {
			ih.EntityID = s.id
		}
		p.metrics.RecordError(errorKind(err))
		return nil, err
	}
	future := synth.FutureFrom(hist, s.horizon)

	model, err := p.selector.Train(s.id, hist, y)
	if err != nil {
		if !errors.Is(err, models.ErrTrainingFailure) {
			p.metrics.RecordError("training")
			return nil, err
		}
		p.l.Warn("training failed, using baseline", applogger.String("entity_id", s.id), applogger.Error(err))
		p.metrics.RecordError("training_failure")
		model = forecast.NewBaseline(s.id, hist, y)
	}

	point, err := p.generator.Forecast(model, future)
	if err != nil {
		p.metrics.RecordError("forecast")
		return nil, fmt.Errorf("forecast %s: %w", s.id, err)
	}
	score := p.estimator.Score(model, y)
	ci, err := p.estimator.Interval(ctx, model, hist, y, future, point)
	if err != nil {
		p.l.Warn("confidence interval degraded", applogger.String("entity_id", s.id), applogger.Error(err))
		p.metrics.RecordError("confidence_degraded")
	}

	summary := p.summarizer.Summarize(trend.NewHistoryStats(y), point)
	if ci.Degraded || score < lowConfidence {
		summary = p.summarizer.Flag(summary, models.RiskHighUncertainty)
	}

	first := records[0]
	rec := &models.ForecastRecord{
		ID:                 p.newID(),
		EntityID:           s.id,
		Name:               first.Name,
		Category:           first.Category,
		Kind:               s.kind,
		HorizonDays:        s.horizon,
		StartDate:          util.AddDays(hist.Dates[hist.Len()-1], 1),
		Forecast:           point,
		ConfidenceScore:    score,
		ConfidenceInterval: ci,
		Trend:              summary,
		Model:              performance(model),
		GeneratedAt:        p.now().UTC(),
	}
	p.metrics.RecordForecast(s.kind, string(model.Kind()))
	p.metrics.RecordConfidence(s.kind, score)
	p.l.Info("forecast.entity ok",
		applogger.String("entity_id", s.id),
		applogger.String("kind", string(s.kind)),
		applogger.String("model", string(model.Kind())),
		applogger.Float64("confidence", score),
		applogger.Float64("growth_rate", summary.GrowthRate),
		applogger.Bool("degraded", ci.Degraded),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return rec, nil
}

func performance(m *forecast.TrainedModel) models.ModelPerformance {
	r2 := m.HeldOutR2()
	rating := "fair"
	switch {
	case m.Kind() == regression.KindBaseline:
		rating = "baseline"
	case r2 > 0.8:
		rating = "excellent"
	case r2 > 0.6:
		rating = "good"
	}
	return models.ModelPerformance{
		Kind:           string(m.Kind()),
		HeldOutR2:      r2,
		Rating:         rating,
		FeaturesUsed:   m.FeatureNames(),
		TrainingPoints: m.TrainingPoints(),
	}
}

func errNotFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, models.ErrEntityNotFound)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, models.ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, models.ErrEntityNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordForecast(models.EntityKind, string) {}
func (nopMetrics) RecordConfidence(models.EntityKind, float64) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}
