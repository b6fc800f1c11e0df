package trend

import (
	"fmt"

	"TrendCast/internal/domain/models"
)

// Policy turns summaries into advisory text. It is business policy and can be
// swapped without touching the numbers.
type Policy interface {
	Recommend(sum models.TrendSummary) []string
	Market(o models.MarketOutlook) []string
}

// DefaultPolicy is the stock English advice set.
type DefaultPolicy struct{}

var _ Policy = DefaultPolicy{}

func (DefaultPolicy) Recommend(sum models.TrendSummary) []string {
	var out []string
	switch sum.Direction {
	case models.DirectionRising:
		out = append(out,
			"Increase inventory to meet the expected demand",
			"Raise the marketing budget to capture the growth",
			"Evaluate expanding the product line",
		)
	case models.DirectionFalling:
		out = append(out,
			"Review pricing and promotions",
			"Analyze changes in consumer preferences",
			"Consider repositioning the product",
		)
	default:
		out = append(out, steadyAdvice...)
	}
	if sum.GrowthRate > 20 {
		out = append(out, "Prepare for accelerated growth")
	} else if sum.GrowthRate < -20 {
		out = append(out, "Implement urgent corrective measures")
	}

	for _, f := range sum.RiskFlags {
		switch f {
		case models.RiskInsufficientHistory:
			out = append(out, "Collect more history before committing to large orders")
		case models.RiskHighUncertainty:
			out = append(out, "Review this forecast frequently since its confidence is low")
		}
	}

	inv := sum.Inventory
	out = append(out, fmt.Sprintf("Maintain an inventory of %d units", inv.RecommendedStock))
	if len(inv.PeakDays) > 0 {
		out = append(out, "Prepare for seasonal demand peaks")
	}
	if len(inv.LowDays) > 0 {
		out = append(out, "Plan for low-demand periods")
	}
	if inv.HighVariability {
		out = append(out, "Implement a flexible inventory system")
	}
	return out
}

func (DefaultPolicy) Market(o models.MarketOutlook) []string {
	var out []string
	switch o.Trend {
	case MarketExpanding:
		out = append(out,
			"Increase marketing investment",
			"Expand the product range",
			"Explore new distribution channels",
		)
	case MarketContracting:
		out = append(out,
			"Optimize operating costs",
			"Focus on core products",
			"Diversify into related markets",
		)
	default:
		out = append(out, steadyAdvice...)
	}
	for _, opp := range o.Opportunities {
		switch opp {
		case OpportunityExpansion:
			out = append(out, "Develop an expansion strategy")
		case OpportunityInventory:
			out = append(out, "Implement an inventory management system")
		}
	}
	for _, r := range o.Risks {
		switch r {
		case RiskMarketDecline:
			out = append(out, "Develop a defensive strategy")
		case RiskMarketVolatility:
			out = append(out, "Implement risk mitigation strategies")
		}
	}
	return out
}

var steadyAdvice = []string{
	"Keep the current strategy",
	"Monitor market indicators",
	"Optimize the product mix",
}
