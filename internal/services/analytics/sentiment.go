package analytics

import (
	"context"
	"fmt"
	"math"

	"TrendCast/internal/domain/models"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
	"TrendCast/pkg/util"
)

const sentimentPath = "/v1/sentiment/daily"

type sentimentRequest struct {
	EntityID string   `json:"entity_id"`
	Days     []string `json:"days"`
}

type sentimentResponse struct {
	// Scores maps YYYY-MM-DD to a score in [-1, 1].
	Scores map[string]float64 `json:"scores"`
}

// SentimentClient fills missing sentiment_score covariates from the NLP service.
type SentimentClient struct {
	base     httpServiceBase
	attempts int
}

var _ domsvc.SentimentProvider = (*SentimentClient)(nil)

func NewSentimentClient(cfg config.SentimentConfig, opts ...xhttp.ClientOption) *SentimentClient {
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(cfg.Timeout)}, opts...)
	return &SentimentClient{
		base:     newHTTPServiceBase(cfg.URL, xhttp.NewClient(opts...)),
		attempts: cfg.Attempts,
	}
}

// Enrich returns copies of records where days without a sentiment score take the
// service's value. Records that already carry a score are left as they are, and
// days the service does not score stay without one.
func (s *SentimentClient) Enrich(ctx context.Context, entityID string, records []models.ObservationRecord) ([]models.ObservationRecord, error) {
	var missing []string
	for _, r := range records {
		if _, ok := r.Covariate(models.CovariateSentiment); !ok {
			missing = append(missing, util.FormatDay(r.Date))
		}
	}
	out := make([]models.ObservationRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	if len(missing) == 0 {
		return out, nil
	}

	var resp sentimentResponse
	req := sentimentRequest{EntityID: entityID, Days: missing}
	if err := s.base.postJSONWithRetry(ctx, sentimentPath, req, &resp, s.attempts); err != nil {
		return nil, fmt.Errorf("sentiment %s: %w", entityID, err)
	}

	for i := range out {
		if _, ok := out[i].Covariate(models.CovariateSentiment); ok {
			continue
		}
		v, ok := resp.Scores[util.FormatDay(out[i].Date)]
		if !ok || math.IsNaN(v) {
			continue
		}
		if out[i].Covariates == nil {
			out[i].Covariates = make(map[string]float64, 1)
		}
		out[i].Covariates[models.CovariateSentiment] = math.Max(-1, math.Min(1, v))
	}
	return out, nil
}
