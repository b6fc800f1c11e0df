package repository

import (
	"context"

	"TrendCast/internal/domain/models"
)

// ObservationStore is a read-only view over historical observations.
// Returned slices are owned by the caller.
type ObservationStore interface {
	// Entities lists product ids, restricted to category when it is not empty.
	Entities(ctx context.Context, category string) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	Observations(ctx context.Context, entityID string) ([]models.ObservationRecord, error)
	// CategoryObservations returns the raw product records of a category.
	CategoryObservations(ctx context.Context, category string) ([]models.ObservationRecord, error)
}

// ObservationWriter appends observations (ingestion path).
type ObservationWriter interface {
	InsertBatch(ctx context.Context, records []models.ObservationRecord) error
}

type ForecastPublisher interface {
	Publish(ctx context.Context, rec *models.ForecastRecord) error
	PublishBatch(ctx context.Context, recs []*models.ForecastRecord) error
	Close() error
}

type Metrics interface {
	RecordForecast(kind models.EntityKind, model string)
	RecordConfidence(kind models.EntityKind, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
