package models

import "time"

type Direction string

const (
	DirectionRising   Direction = "rising"
	DirectionFalling  Direction = "falling"
	DirectionStable   Direction = "stable"
	DirectionVolatile Direction = "volatile"
)

type Strength string

const (
	StrengthLow      Strength = "low"
	StrengthMedium   Strength = "medium"
	StrengthHigh     Strength = "high"
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk flags raised by the trend summary.
const (
	RiskHighVariability     = "high_variability"
	RiskDecliningTrend      = "declining_trend"
	RiskExtremeSeasonality  = "extreme_seasonality"
	RiskInsufficientHistory = "insufficient_history"
	RiskHighUncertainty     = "high_uncertainty"
)

// ConfidenceInterval holds per-day bounds aligned with a forecast.
type ConfidenceInterval struct {
	Lower          []int   `json:"lower"`
	Upper          []int   `json:"upper"`
	Coverage       float64 `json:"coverage"`
	Degraded       bool    `json:"degraded"`
	DegradedReason string  `json:"degraded_reason,omitempty"`
}

type SeasonalFactors struct {
	PeakDay     int      `json:"peak_day"`
	PeakValue   int      `json:"peak_value"`
	ValleyDay   int      `json:"valley_day"`
	ValleyValue int      `json:"valley_value"`
	Variability float64  `json:"variability"`
	Strength    Strength `json:"strength"`
	// WeeklyPattern is the mean forecast per offset mod 7, starting with the first forecast day.
	WeeklyPattern []float64 `json:"weekly_pattern,omitempty"`
}

type InventoryAdvice struct {
	RecommendedStock int   `json:"recommended_stock"`
	SafetyStock      int   `json:"safety_stock"`
	PeakDays         []int `json:"peak_days,omitempty"`
	LowDays          []int `json:"low_days,omitempty"`
	HighVariability  bool  `json:"high_variability"`
}

type TrendSummary struct {
	GrowthRate      float64         `json:"growth_rate"`
	Direction       Direction       `json:"direction"`
	TrendStrength   Strength        `json:"trend_strength"`
	Slope           float64         `json:"slope"`
	Seasonal        SeasonalFactors `json:"seasonal"`
	RiskFlags       []string        `json:"risk_flags"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	Inventory       InventoryAdvice `json:"inventory"`
	Recommendations []string        `json:"recommendations"`
}

type ModelPerformance struct {
	Kind           string   `json:"kind"`
	HeldOutR2      float64  `json:"held_out_r2"`
	Rating         string   `json:"rating"`
	FeaturesUsed   []string `json:"features_used"`
	TrainingPoints int      `json:"training_points"`
}

type MonthlyForecast struct {
	Month        int     `json:"month"`
	Total        int     `json:"total"`
	AverageDaily float64 `json:"average_daily"`
	PeakDay      int     `json:"peak_day"`
}

// MarketOutlook is attached to category forecasts.
type MarketOutlook struct {
	GrowthRate       float64           `json:"growth_rate"`
	Trend            string            `json:"trend"`
	MonthlyBreakdown []MonthlyForecast `json:"monthly_breakdown"`
	PeakMonth        int               `json:"peak_month"`
	LowestMonth      int               `json:"lowest_month"`
	Opportunities    []string          `json:"opportunities"`
	Risks            []string          `json:"risks"`
	Recommendations  []string          `json:"recommendations"`
	Confidence       float64           `json:"confidence"`
}

// ForecastRecord is the unit handed to reporting collaborators.
type ForecastRecord struct {
	ID                 string             `json:"id"`
	EntityID           string             `json:"entity_id"`
	Name               string             `json:"name,omitempty"`
	Category           string             `json:"category"`
	Kind               EntityKind         `json:"kind"`
	HorizonDays        int                `json:"horizon_days"`
	StartDate          time.Time          `json:"start_date"`
	Forecast           []int              `json:"forecast"`
	ConfidenceScore    float64            `json:"confidence_score"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	Trend              TrendSummary       `json:"trend"`
	Model              ModelPerformance   `json:"model"`
	Market             *MarketOutlook     `json:"market,omitempty"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// TrendReport is the result of a multi-entity batch.
type TrendReport struct {
	Category    string            `json:"category,omitempty"`
	HorizonDays int               `json:"horizon_days"`
	Records     []*ForecastRecord `json:"records"`
	Skipped     []string          `json:"skipped,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}
