package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"bizzytrack/backend/internal/audit/domain"
)

const publishTimeout = 5 * time.Second

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes audit entries as JSON to a Kafka topic, keyed by business id so each
// tenant's entries stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher returns a publisher for topic, or nil when brokers or topic are empty
// (streaming disabled). Call Close when shutting down.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish serializes a and writes it with a short timeout so a slow broker does not hold a worker.
func (p *KafkaPublisher) Publish(ctx context.Context, a *domain.AuditLog) error {
	if p == nil || p.writer == nil || a == nil {
		return nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(a.BusinessID),
		Value: payload,
		Time:  a.CreatedAt,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(a.Action)},
		},
	})
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
