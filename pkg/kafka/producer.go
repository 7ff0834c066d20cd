package kafka

import (
	"context"
	"fmt"

	"elitetransport-backend/internal/config"

	"github.com/segmentio/kafka-go"
)

// Producer wraps a Kafka writer bound to a single topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for the given effects topic.
func NewProducer(cfg *config.EffectsConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer}
}

// Publish writes a single message keyed by key.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish kafka message: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewReader creates a consumer reader for the effects topic, used by the
// side-effect fan-out worker.
func NewReader(cfg *config.EffectsConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
}
