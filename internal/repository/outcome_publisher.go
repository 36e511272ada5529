package repository

import (
	"context"

	"PipForge/internal/domain/models"
	"PipForge/internal/domain/repository"
	pkgkafka "PipForge/pkg/kafka"
)

// KafkaOutcomePublisher emits closed-trade events, keyed by symbol so
// outcomes for one pair stay ordered within a partition.
type KafkaOutcomePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaOutcomePublisher creates the Kafka outcome publisher.
func NewKafkaOutcomePublisher(producer *pkgkafka.Producer, topic string) repository.OutcomePublisher {
	return &KafkaOutcomePublisher{producer: producer, topic: topic}
}

func (p *KafkaOutcomePublisher) Publish(ctx context.Context, t *models.ClosedTrade) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), t)
}

func (p *KafkaOutcomePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
