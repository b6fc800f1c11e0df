package repository

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

var sampleProducts = []string{
	"Smartphone Galaxy S24", "iPhone 15 Pro", "Laptop Dell XPS",
	"Nike Air Max", "Adidas Ultraboost", "Samsung TV 4K",
	"Sony Headphones", "MacBook Pro", "iPad Air", "Apple Watch",
}

const sampleElectronics = 6

// SampleObservations generates a deterministic demo table: ten products over
// two categories with yearly, weekly and holiday seasonality. start is the
// first day of history.
func SampleObservations(seed uint64, days int, start time.Time) []models.ObservationRecord {
	rnd := rand.New(rand.NewPCG(seed, 0))
	start = util.TruncateDay(start)
	out := make([]models.ObservationRecord, 0, len(sampleProducts)*days)
	for i, name := range sampleProducts {
		category := "sports"
		if i < sampleElectronics {
			category = "electronics"
		}
		for d := 0; d < days; d++ {
			date := util.AddDays(start, d)
			doy := float64(date.YearDay())
			dow := float64(util.WeekdayIndex(date))
			day := float64(d)

			trend := 1 + 0.05*day/730
			seasonal := 1 + 0.3*math.Sin(2*math.Pi*doy/365)
			weekly := 1 + 0.2*math.Sin(2*math.Pi*dow/7)

			var cycle, base, priceFactor float64
			if category == "electronics" {
				cycle = 1 + 0.15*math.Sin(2*math.Pi*day/90)
				base = 100 + float64(i)*15
				priceFactor = 1 + 0.1*math.Sin(2*math.Pi*day/180)
			} else {
				cycle = 1 + 0.4*math.Sin(2*math.Pi*doy/365)
				base = 80 + float64(i)*12
				priceFactor = 1 + 0.05*math.Sin(2*math.Pi*day/120)
			}
			event := 1.0
			switch date.Month() {
			case time.December:
				event = 1.5
			case time.November:
				event = 1.8
			case time.June:
				event = 1.2
			}
			noise := rnd.NormFloat64() * 0.1
			sales := math.Max(0, math.Trunc(base*trend*seasonal*weekly*cycle*priceFactor*event*(1+noise)))

			price := uniform(rnd, 50, 800)
			out = append(out, models.ObservationRecord{
				EntityID: fmt.Sprintf("prod_%03d", i),
				Name:     name,
				Category: category,
				Date:     date,
				Target:   sales,
				Covariates: map[string]float64{
					models.CovariateSearchVolume:    math.Trunc(sales * uniform(rnd, 8, 40)),
					models.CovariatePrice:           price,
					models.CovariateSentiment:       uniform(rnd, -0.3, 0.7),
					models.CovariateCompetitorPrice: price * uniform(rnd, 0.8, 1.2),
					models.CovariateMarketingSpend:  uniform(rnd, 100, 1000),
				},
			})
		}
	}
	return out
}

func uniform(rnd *rand.Rand, lo, hi float64) float64 {
	return lo + rnd.Float64()*(hi-lo)
}
