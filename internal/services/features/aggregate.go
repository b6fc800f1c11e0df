package features

import (
	"fmt"
	"sort"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

// AggregateCategory folds the product records of a category into one daily series:
// target, search_volume and marketing_spend are summed, price and sentiment_score averaged.
func AggregateCategory(category string, records []models.ObservationRecord) ([]models.ObservationRecord, error) {
	type acc struct {
		target, search, marketing float64
		priceSum                  float64
		sentimentSum              float64
		n, sentimentN             int
	}
	byDay := make(map[time.Time]*acc)
	check := NewSynthesizer(models.KindCategory)
	for _, r := range records {
		if r.Category != category {
			return nil, &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date,
				Reason: fmt.Sprintf("category %q outside %q", r.Category, category)}
		}
		// entity mixing is expected here, so only per-record checks apply
		if err := check.check(r); err != nil {
			return nil, err
		}
		day := util.TruncateDay(r.Date)
		a := byDay[day]
		if a == nil {
			a = &acc{}
			byDay[day] = a
		}
		a.target += r.Target
		a.search += r.Covariates[SearchVolume]
		a.marketing += r.Covariates[MarketingSpend]
		a.priceSum += r.Covariates[Price]
		a.n++
		if v, ok := r.Covariate(Sentiment); ok {
			a.sentimentSum += v
			a.sentimentN++
		}
	}

	out := make([]models.ObservationRecord, 0, len(byDay))
	for day, a := range byDay {
		cov := map[string]float64{
			Price:          a.priceSum / float64(a.n),
			SearchVolume:   a.search,
			MarketingSpend: a.marketing,
		}
		if a.sentimentN > 0 {
			cov[Sentiment] = a.sentimentSum / float64(a.sentimentN)
		}
		out = append(out, models.ObservationRecord{
			EntityID:   category,
			Category:   category,
			Date:       day,
			Target:     a.target,
			Covariates: cov,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
