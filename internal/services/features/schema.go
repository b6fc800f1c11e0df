package features

import (
	"time"

	"TrendCast/internal/domain/models"
)

// Feature column names, in vector order.
const (
	DayOfWeek            = "day_of_week"
	Month                = "month"
	DayOfYear            = "day_of_year"
	IsWeekend            = "is_weekend"
	IsHolidayWindow      = "is_holiday_window"
	Price                = models.CovariatePrice
	Sentiment            = models.CovariateSentiment
	SearchVolume         = models.CovariateSearchVolume
	CompetitorPrice      = models.CovariateCompetitorPrice
	MarketingSpend       = models.CovariateMarketingSpend
	PriceCompetitiveness = "price_competitiveness"
	SearchToTargetRatio  = "search_to_target_ratio"
)

// calendarWidth is the number of leading date-derived columns shared by every schema.
const calendarWidth = 5

var calendarNames = []string{DayOfWeek, Month, DayOfYear, IsWeekend, IsHolidayWindow}

// Schema fixes the order and width of feature vectors for one entity kind.
type Schema struct {
	Kind  models.EntityKind
	Names []string
	// Required covariates; sentiment is always optional.
	Required []string
}

var (
	productSchema = Schema{
		Kind: models.KindProduct,
		Names: append(append([]string{}, calendarNames...),
			Price, Sentiment, SearchVolume, CompetitorPrice, MarketingSpend,
			PriceCompetitiveness, SearchToTargetRatio),
		Required: []string{Price, SearchVolume, MarketingSpend, CompetitorPrice},
	}
	categorySchema = Schema{
		Kind: models.KindCategory,
		Names: append(append([]string{}, calendarNames...),
			Price, Sentiment, SearchVolume, MarketingSpend),
		Required: []string{Price, SearchVolume, MarketingSpend},
	}
)

// SchemaFor returns the schema of kind. Unknown kinds fall back to the product schema.
func SchemaFor(kind models.EntityKind) Schema {
	if kind == models.KindCategory {
		return categorySchema
	}
	return productSchema
}

func (s Schema) Width() int { return len(s.Names) }

// Set is a feature matrix with one row per calendar day.
type Set struct {
	Schema Schema
	Dates  []time.Time
	X      [][]float64
}

func (s *Set) Len() int { return len(s.X) }

// Rows returns the sub-matrix made of the given row indexes.
func (s *Set) Rows(idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = s.X[j]
	}
	return out
}
