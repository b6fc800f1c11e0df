package trend

import (
	"math"
	"sort"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"

	"gonum.org/v1/gonum/stat"
)

const (
	// CurrentWindowDays is the look-back of the current trend analysis.
	CurrentWindowDays = 30
	// MinCurrentPoints is the fewest observations in the window worth analyzing.
	MinCurrentPoints = 7

	risingCombined = 0.05
	stableCombined = 0.02

	salesWeight     = 0.40
	searchWeight    = 0.35
	sentimentWeight = 0.25
)

// NormalizedSlope is the least-squares slope over the sample index divided by the mean.
// It is 0 for fewer than two values or a non-positive mean.
func NormalizedSlope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := stat.Mean(values, nil)
	if mean <= 0 {
		return 0
	}
	x := make([]float64, len(values))
	for i := range x {
		x[i] = float64(i)
	}
	_, beta := stat.LinearRegression(x, values, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta / mean
}

// CurrentDirection classifies the mean of the sales and search slopes.
// The band between the stable and rising thresholds is volatile.
func CurrentDirection(sales, search float64) models.Direction {
	combined := (sales + search) / 2
	switch {
	case combined > risingCombined:
		return models.DirectionRising
	case combined < -risingCombined:
		return models.DirectionFalling
	case math.Abs(combined) < stableCombined:
		return models.DirectionStable
	default:
		return models.DirectionVolatile
	}
}

// TrendScore maps slopes and mean sentiment to 0..100, weighting sales 40%,
// search 35% and sentiment 25%.
func TrendScore(sales, search, sentiment float64) float64 {
	salesScore := clamp((sales+0.1)*500, 0, 100)
	searchScore := clamp((search+0.1)*500, 0, 100)
	sentimentScore := clamp((sentiment+0.2)*125, 0, 100)
	return clamp(salesScore*salesWeight+searchScore*searchWeight+sentimentScore*sentimentWeight, 0, 100)
}

// AnalyzeCurrent summarizes the last window days of one product's records, ending at its
// latest observation. ok is false when fewer than minPoints records fall in the window.
func AnalyzeCurrent(records []models.ObservationRecord, window, minPoints int) (models.ProductTrend, bool) {
	if len(records) == 0 {
		return models.ProductTrend{}, false
	}
	sorted := append([]models.ObservationRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	last := util.TruncateDay(sorted[len(sorted)-1].Date)
	from := util.AddDays(last, -(window - 1))

	var sales, search, price, sentiment []float64
	for _, r := range sorted {
		if util.TruncateDay(r.Date).Before(from) {
			continue
		}
		sales = append(sales, r.Target)
		search = append(search, r.Covariates[models.CovariateSearchVolume])
		price = append(price, r.Covariates[models.CovariatePrice])
		sentiment = append(sentiment, r.Covariates[models.CovariateSentiment])
	}
	if len(sales) < max(minPoints, 1) {
		return models.ProductTrend{}, false
	}

	salesTrend := NormalizedSlope(sales)
	searchTrend := NormalizedSlope(search)
	mood := stat.Mean(sentiment, nil)
	first := sorted[0]
	return models.ProductTrend{
		EntityID:       first.EntityID,
		Name:           first.Name,
		Category:       first.Category,
		Direction:      CurrentDirection(salesTrend, searchTrend),
		TrendScore:     round(TrendScore(salesTrend, searchTrend, mood), 2),
		GrowthRate:     round(salesTrend*100, 2),
		SearchTrend:    round(searchTrend, 4),
		SearchVolume:   int(stat.Mean(search, nil)),
		SentimentScore: round(mood, 3),
		PriceTrend:     round(NormalizedSlope(price), 4),
		Points:         len(sales),
		LastObserved:   last,
	}, true
}

// RankTrends orders by trend score descending; entity id breaks ties.
func RankTrends(trends []models.ProductTrend) {
	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].TrendScore != trends[j].TrendScore {
			return trends[i].TrendScore > trends[j].TrendScore
		}
		return trends[i].EntityID < trends[j].EntityID
	})
}

func Distribution(trends []models.ProductTrend) models.TrendDistribution {
	d := models.TrendDistribution{Total: len(trends)}
	if d.Total == 0 {
		return d
	}
	var score float64
	for _, t := range trends {
		score += t.TrendScore
		switch t.Direction {
		case models.DirectionRising:
			d.Rising++
		case models.DirectionFalling:
			d.Falling++
		case models.DirectionStable:
			d.Stable++
		default:
			d.Volatile++
		}
	}
	n := float64(d.Total)
	d.AvgTrendScore = round(score/n, 2)
	d.RisingPercent = round(float64(d.Rising)/n*100, 1)
	d.FallingPercent = round(float64(d.Falling)/n*100, 1)
	d.StablePercent = round(float64(d.Stable)/n*100, 1)
	d.VolatilePercent = round(float64(d.Volatile)/n*100, 1)
	return d
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 { return math.Min(hi, math.Max(lo, v)) }
