package trend

import (
	"math"

	"TrendCast/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const (
	marketGrowthWindow = 90
	monthDays          = 30
	expandingGrowth    = 10.0
	contractingGrowth  = -5.0
)

// Market trend labels.
const (
	MarketExpanding   = "expanding"
	MarketStable      = "stable"
	MarketContracting = "contracting"
)

// Market opportunities and risks.
const (
	OpportunityExpansion  = "Market expansion"
	OpportunityInventory  = "Seasonal inventory optimization"
	OpportunityPremium    = "Premium product development"
	RiskMarketDecline     = "Market decline"
	RiskMarketVolatility  = "High market volatility"
	RiskNegativeSentiment = "Negative consumer sentiment"
)

// MarketHistory summarizes an aggregated category series.
type MarketHistory struct {
	Records   int
	Mean      float64
	StdDev    float64
	Recent90  float64
	Recent30  float64
	Sentiment float64
}

// NewMarketHistory builds the stats from category targets and the daily sentiment means
// (nil when no sentiment was observed).
func NewMarketHistory(targets, sentiment []float64) MarketHistory {
	h := MarketHistory{Records: len(targets)}
	if len(targets) == 0 {
		return h
	}
	h.Mean = stat.Mean(targets, nil)
	if len(targets) > 1 {
		h.StdDev = stat.StdDev(targets, nil)
	}
	h.Recent90 = stat.Mean(tail(targets, marketGrowthWindow), nil)
	h.Recent30 = stat.Mean(tail(targets, recentWindow), nil)
	if len(sentiment) > 0 {
		h.Sentiment = stat.Mean(sentiment, nil)
	}
	return h
}

// Outlook derives the category market view over a forecast of months*30 days.
func (s *Summarizer) Outlook(h MarketHistory, forecast []int) models.MarketOutlook {
	values := toFloats(forecast)
	o := models.MarketOutlook{
		MonthlyBreakdown: Monthly(forecast),
		Opportunities:    []string{},
		Risks:            []string{},
	}
	if len(values) == 0 {
		o.Trend = MarketStable
		o.Confidence = 0.1
		o.Recommendations = s.policy.Market(o)
		return o
	}
	mean, std := meanStd(values)
	o.GrowthRate = GrowthRate(h.Recent90, mean)
	switch {
	case o.GrowthRate > expandingGrowth:
		o.Trend = MarketExpanding
	case o.GrowthRate > contractingGrowth:
		o.Trend = MarketStable
	default:
		o.Trend = MarketContracting
	}

	if len(o.MonthlyBreakdown) > 0 {
		hi, lo := 0, 0
		for i, m := range o.MonthlyBreakdown {
			if m.Total > o.MonthlyBreakdown[hi].Total {
				hi = i
			}
			if m.Total < o.MonthlyBreakdown[lo].Total {
				lo = i
			}
		}
		o.PeakMonth, o.LowestMonth = hi+1, lo+1
	}

	if mean > 1.2*h.Recent30 {
		o.Opportunities = append(o.Opportunities, OpportunityExpansion)
	}
	if std > 0.3*mean {
		o.Opportunities = append(o.Opportunities, OpportunityInventory)
	}
	if h.Sentiment > 0.5 {
		o.Opportunities = append(o.Opportunities, OpportunityPremium)
	}
	if mean < 0.8*h.Recent30 {
		o.Risks = append(o.Risks, RiskMarketDecline)
	}
	if std > 0.5*mean {
		o.Risks = append(o.Risks, RiskMarketVolatility)
	}
	if h.Sentiment < -0.2 {
		o.Risks = append(o.Risks, RiskNegativeSentiment)
	}

	quality := math.Min(1, float64(h.Records)/365)
	stability := 1 / (1 + h.StdDev/math.Max(1, h.Mean))
	spread := 1 / (1 + std/math.Max(1, mean))
	o.Confidence = math.Max(0.1, math.Min(0.95, (quality+stability+spread)/3))
	o.Recommendations = s.policy.Market(o)
	return o
}

// Monthly splits a forecast into 30-day blocks; the last block may be short.
func Monthly(forecast []int) []models.MonthlyForecast {
	var out []models.MonthlyForecast
	for start := 0; start < len(forecast); start += monthDays {
		block := forecast[start:min(start+monthDays, len(forecast))]
		total, peak := 0, 0
		for i, v := range block {
			total += v
			if v > block[peak] {
				peak = i
			}
		}
		out = append(out, models.MonthlyForecast{
			Month:        len(out) + 1,
			Total:        total,
			AverageDaily: float64(total) / float64(len(block)),
			PeakDay:      peak + 1,
		})
	}
	return out
}
