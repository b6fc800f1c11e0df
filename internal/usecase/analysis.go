package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/services/trend"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/util"
)

// CurrentTrends ranks every product (of category when set) by the movement of its
// last 30 observed days. Products with too few points in the window are left out.
func (p *ForecastPipeline) CurrentTrends(ctx context.Context, category string, limit int) (*models.CurrentTrendsReport, error) {
	records, err := p.productRecords(ctx, category)
	if err != nil {
		return nil, err
	}
	report := &models.CurrentTrendsReport{
		Category:   category,
		WindowDays: trend.CurrentWindowDays,
		Trends:     make([]models.ProductTrend, 0, len(records)),
	}
	for _, recs := range records {
		if t, ok := trend.AnalyzeCurrent(recs, trend.CurrentWindowDays, trend.MinCurrentPoints); ok {
			report.Trends = append(report.Trends, t)
		}
	}
	trend.RankTrends(report.Trends)
	report.Summary = trend.Distribution(report.Trends)
	if limit > 0 && len(report.Trends) > limit {
		report.Trends = report.Trends[:limit]
	}
	report.GeneratedAt = p.now().UTC()
	p.l.Debug("current trends ready",
		applogger.String("category", category),
		applogger.Int("products", report.Summary.Total),
	)
	return report, nil
}

// SalesMetrics aggregates observed sales of category (all products when empty)
// between from and to; zero bounds cover the whole history.
func (p *ForecastPipeline) SalesMetrics(ctx context.Context, category string, from, to time.Time) (*models.SalesMetrics, error) {
	records, err := p.productRecords(ctx, category)
	if err != nil {
		return nil, err
	}
	var all []models.ObservationRecord
	for _, recs := range records {
		all = append(all, recs...)
	}
	m, ok := trend.ComputeSalesMetrics(all, from, to)
	if !ok {
		return nil, fmt.Errorf("no sales for category %q in %s..%s: %w",
			category, util.FormatDay(from), util.FormatDay(to), models.ErrEntityNotFound)
	}
	return &m, nil
}

func (p *ForecastPipeline) productRecords(ctx context.Context, category string) ([][]models.ObservationRecord, error) {
	ids, err := p.store.Entities(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errNotFound("category", category)
	}
	out := make([][]models.ObservationRecord, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := p.store.Observations(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, recs)
	}
	return out, nil
}
