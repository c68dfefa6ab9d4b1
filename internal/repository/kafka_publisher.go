package repository

import (
	"context"
	"fmt"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domrepo "github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
	pkgkafka "github.com/MetaStark/vision-IoS-sub013/pkg/kafka"
)

// KafkaPublisher pushes sealed vectors to the rendering topic. Messages are
// keyed by asset so each asset's stream stays ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = "vision.state_vectors"
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) Publish(ctx context.Context, v *models.StateVector) error {
	if v == nil {
		return fmt.Errorf("nil vector")
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(v.AssetID), v); err != nil {
		return fmt.Errorf("publish vector %s: %w", v.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
