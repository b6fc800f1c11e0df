package trend

import (
	"sort"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"

	"gonum.org/v1/gonum/stat"
)

// TopProductsLimit caps SalesMetrics.TopProducts.
const TopProductsLimit = 10

// ComputeSalesMetrics aggregates product records with dates in [from, to], both inclusive.
// Zero bounds take the first and last observed day. The previous period is the same number
// of days immediately before from. ok is false when no record falls in the range.
func ComputeSalesMetrics(records []models.ObservationRecord, from, to time.Time) (models.SalesMetrics, bool) {
	if len(records) == 0 {
		return models.SalesMetrics{}, false
	}
	if from.IsZero() || to.IsZero() {
		lo, hi := util.TruncateDay(records[0].Date), util.TruncateDay(records[0].Date)
		for _, r := range records[1:] {
			d := util.TruncateDay(r.Date)
			if d.Before(lo) {
				lo = d
			}
			if d.After(hi) {
				hi = d
			}
		}
		if from.IsZero() {
			from = lo
		}
		if to.IsZero() {
			to = hi
		}
	}
	from, to = util.TruncateDay(from), util.TruncateDay(to)
	if to.Before(from) {
		return models.SalesMetrics{}, false
	}
	span := util.DaysBetween(from, to) + 1
	prevFrom := util.AddDays(from, -span)

	type product struct {
		name   string
		units  float64
		prices []float64
	}
	m := models.SalesMetrics{
		PeriodStart:     from,
		PeriodEnd:       to,
		SalesByCategory: make(map[string]float64),
	}
	products := make(map[string]*product)
	for _, r := range records {
		d := util.TruncateDay(r.Date)
		switch {
		case !d.Before(from) && !d.After(to):
			m.TotalSales += r.Target
			m.Observations++
			m.SalesByCategory[r.Category] += r.Target
			p := products[r.EntityID]
			if p == nil {
				p = &product{name: r.Name}
				products[r.EntityID] = p
			}
			p.units += r.Target
			p.prices = append(p.prices, r.Covariates[models.CovariatePrice])
		case !d.Before(prevFrom) && d.Before(from):
			m.PreviousSales += r.Target
		}
	}
	if m.Observations == 0 {
		return models.SalesMetrics{}, false
	}
	m.AveragePerDay = m.TotalSales / float64(m.Observations)
	if m.PreviousSales > 0 {
		m.GrowthRate = round((m.TotalSales-m.PreviousSales)/m.PreviousSales*100, 2)
	}

	m.TopProducts = make([]models.ProductSales, 0, len(products))
	for id, p := range products {
		m.TopProducts = append(m.TopProducts, models.ProductSales{
			EntityID:  id,
			Name:      p.name,
			UnitsSold: int(p.units),
			Revenue:   round(p.units*stat.Mean(p.prices, nil), 2),
		})
	}
	sort.Slice(m.TopProducts, func(i, j int) bool {
		a, b := m.TopProducts[i], m.TopProducts[j]
		if a.UnitsSold != b.UnitsSold {
			return a.UnitsSold > b.UnitsSold
		}
		return a.EntityID < b.EntityID
	})
	if len(m.TopProducts) > TopProductsLimit {
		m.TopProducts = m.TopProducts[:TopProductsLimit]
	}
	return m, true
}
