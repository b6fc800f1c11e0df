package models

import "time"

// EntityKind separates product series from aggregated category series.
type EntityKind string

const (
	KindProduct  EntityKind = "product"
	KindCategory EntityKind = "category"
)

// Covariate names used in ObservationRecord.Covariates.
const (
	CovariatePrice           = "price"
	CovariateSearchVolume    = "search_volume"
	CovariateSentiment       = "sentiment_score"
	CovariateMarketingSpend  = "marketing_spend"
	CovariateCompetitorPrice = "competitor_price"
)

// ObservationRecord is one calendar day of history for an entity.
type ObservationRecord struct {
	EntityID   string             `json:"entity_id"`
	Name       string             `json:"name,omitempty"`
	Category   string             `json:"category"`
	Date       time.Time          `json:"date"`
	Target     float64            `json:"target"`
	Covariates map[string]float64 `json:"covariates"`
}

// Covariate returns a named covariate and whether it was present.
func (r ObservationRecord) Covariate(name string) (float64, bool) {
	v, ok := r.Covariates[name]
	return v, ok
}

// Clone copies the record including its covariate map.
func (r ObservationRecord) Clone() ObservationRecord {
	out := r
	if r.Covariates != nil {
		out.Covariates = make(map[string]float64, len(r.Covariates))
		for k, v := range r.Covariates {
			out.Covariates[k] = v
		}
	}
	return out
}

// Targets extracts the target column in record order.
func Targets(records []ObservationRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Target
	}
	return out
}
