package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"TrendCast/internal/domain/models"
	applogger "TrendCast/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// PredictTrends forecasts every product (of category when set) with the trend
// history floor. Entity failures are collected, never propagated; only a
// cancelled ctx ends the batch early.
func (p *ForecastPipeline) PredictTrends(ctx context.Context, category string, days int) (*models.TrendReport, error) {
	if days <= 0 {
		days = p.cfg.HorizonDays
	}
	ids, err := p.store.Entities(ctx, category)
	if err != nil {
		return nil, err
	}
	if category != "" && len(ids) == 0 {
		return nil, errNotFound("category", category)
	}
	start := time.Now()
	report := &models.TrendReport{
		Category:    category,
		HorizonDays: days,
		Records:     []*models.ForecastRecord{},
		Errors:      map[string]string{},
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.cfg.BatchWorkers)
	for _, id := range ids {
		g.Go(func() error {
			rec, err := p.trendOne(ctx, id, days)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Records = append(report.Records, rec)
			case errors.Is(err, models.ErrInsufficientHistory):
				report.Skipped = append(report.Skipped, id)
				p.l.Info("forecast.entity skipped", applogger.String("entity_id", id), applogger.Error(err))
			default:
				report.Errors[id] = err.Error()
				p.l.Warn("forecast.entity failed", applogger.String("entity_id", id), applogger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	SortRecords(report.Records)
	sort.Strings(report.Skipped)
	report.GeneratedAt = p.now().UTC()
	p.metrics.RecordLatency("trend_batch", time.Since(start).Seconds())
	p.l.Info("forecast.batch done",
		applogger.String("category", category),
		applogger.Int("entities", len(ids)),
		applogger.Int("ok", len(report.Records)),
		applogger.Int("skipped", len(report.Skipped)),
		applogger.Int("failed", len(report.Errors)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return report, ctx.Err()
}

func (p *ForecastPipeline) trendOne(ctx context.Context, id string, days int) (*models.ForecastRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := p.store.Observations(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.runSeries(ctx, series{
		id:      id,
		kind:    models.KindProduct,
		records: records,
		min:     p.cfg.MinTrendHistory,
		horizon: days,
	})
}

// SortRecords orders by confidence, then growth, both descending; entity id breaks ties.
func SortRecords(recs []*models.ForecastRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		if a.Trend.GrowthRate != b.Trend.GrowthRate {
			return a.Trend.GrowthRate > b.Trend.GrowthRate
		}
		return a.EntityID < b.EntityID
	})
}
