package repository

import (
	"context"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	pkgkafka "TrendCast/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, msgs []pkgkafka.Message) error
	Close() error
}

// KafkaForecastPublisher writes ForecastRecords as JSON keyed by entity id.
type KafkaForecastPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)

func NewKafkaForecastPublisher(producer *pkgkafka.Producer, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: producer, topic: topic}
}

func (p *KafkaForecastPublisher) Publish(ctx context.Context, rec *models.ForecastRecord) error {
	return p.PublishBatch(ctx, []*models.ForecastRecord{rec})
}

func (p *KafkaForecastPublisher) PublishBatch(ctx context.Context, recs []*models.ForecastRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(recs))
	for _, r := range recs {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(r.EntityID), Value: r})
	}
	if len(msgs) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaForecastPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopForecastPublisher drops records; used when Kafka is disabled.
type NopForecastPublisher struct{}

var _ domrepo.ForecastPublisher = NopForecastPublisher{}

func (NopForecastPublisher) Publish(context.Context, *models.ForecastRecord) error { return nil }
func (NopForecastPublisher) PublishBatch(context.Context, []*models.ForecastRecord) error { return nil }
func (NopForecastPublisher) Close() error { return nil }
