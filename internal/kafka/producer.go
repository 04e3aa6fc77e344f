package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DatasetEvent announces that upstream tables changed, e.g. after a nightly
// warehouse load or a snapshot re-export.
type DatasetEvent struct {
	Type       string    `json:"type"`
	Tables     []string  `json:"tables"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// InvalidationNotice reports which cached metrics were dropped in response
// to a DatasetEvent.
type InvalidationNotice struct {
	Type          string    `json:"type"`
	Tables        []string  `json:"tables"`
	Metrics       []string  `json:"metrics"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
