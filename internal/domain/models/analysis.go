package models

import "time"

// ProductTrend describes the recent movement of one product's observed data.
// Slopes are per day and normalized by the window mean.
type ProductTrend struct {
	EntityID       string    `json:"entity_id"`
	Name           string    `json:"name,omitempty"`
	Category       string    `json:"category"`
	Direction      Direction `json:"current_trend"`
	TrendScore     float64   `json:"trend_score"`
	GrowthRate     float64   `json:"growth_rate"`
	SearchTrend    float64   `json:"search_trend"`
	SearchVolume   int       `json:"search_volume"`
	SentimentScore float64   `json:"sentiment_score"`
	PriceTrend     float64   `json:"price_trend"`
	Points         int       `json:"points"`
	LastObserved   time.Time `json:"last_observed"`
}

type TrendDistribution struct {
	Total           int     `json:"total_products"`
	Rising          int     `json:"rising_trends"`
	Falling         int     `json:"falling_trends"`
	Stable          int     `json:"stable_trends"`
	Volatile        int     `json:"volatile_trends"`
	AvgTrendScore   float64 `json:"avg_trend_score"`
	RisingPercent   float64 `json:"rising_percentage"`
	FallingPercent  float64 `json:"falling_percentage"`
	StablePercent   float64 `json:"stable_percentage"`
	VolatilePercent float64 `json:"volatile_percentage"`
}

// CurrentTrendsReport ranks products by trend score, best first.
type CurrentTrendsReport struct {
	Category    string            `json:"category,omitempty"`
	WindowDays  int               `json:"window_days"`
	Trends      []ProductTrend    `json:"trends"`
	Summary     TrendDistribution `json:"summary"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type ProductSales struct {
	EntityID  string  `json:"product_id"`
	Name      string  `json:"product_name,omitempty"`
	UnitsSold int     `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
}

// SalesMetrics summarizes observed sales over a closed day range.
// GrowthRate compares against the preceding range of the same length.
type SalesMetrics struct {
	PeriodStart     time.Time          `json:"period_start"`
	PeriodEnd       time.Time          `json:"period_end"`
	TotalSales      float64            `json:"total_sales"`
	Observations    int                `json:"observations"`
	AveragePerDay   float64            `json:"average_per_observation"`
	SalesByCategory map[string]float64 `json:"sales_by_category"`
	TopProducts     []ProductSales     `json:"top_products"`
	PreviousSales   float64            `json:"previous_sales"`
	GrowthRate      float64            `json:"growth_rate"`
}
