package service

import (
	"context"

	"TrendCast/internal/domain/models"
)

// SentimentProvider fills the optional sentiment_score covariate from an external NLP service.
type SentimentProvider interface {
	Enrich(ctx context.Context, entityID string, records []models.ObservationRecord) ([]models.ObservationRecord, error)
}

// ForecastBroadcaster pushes finished forecasts to live subscribers.
type ForecastBroadcaster interface {
	Broadcast(rec *models.ForecastRecord)
}
