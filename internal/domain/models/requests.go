package models

type DemandRequest struct {
	EntityID string `query:"entity_id" validate:"required"`
	Days     int    `query:"days" default:"30" validate:"gte=1,lte=365"`
}

type TrendsRequest struct {
	Category string `query:"category"`
	Days     int    `query:"days" default:"30" validate:"gte=1,lte=365"`
}

type MarketRequest struct {
	Category string `query:"category" validate:"required"`
	Months   int    `query:"months" default:"6" validate:"gte=1,lte=12"`
}

type CurrentTrendsRequest struct {
	Category string `query:"category"`
	Limit    int    `query:"limit" default:"10" validate:"gte=1,lte=100"`
}

// SalesMetricsRequest dates are YYYY-MM-DD; empty bounds cover all history.
type SalesMetricsRequest struct {
	Category  string `query:"category"`
	StartDate string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
}
