// Package kafka publishes run-completed events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/warp/finsim/events"
)

const topic = "simulation_completed"

type Publisher struct {
	writer *kafka.Writer
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishRunCompleted writes the event keyed by run ID, so per-run
// ordering is preserved across partitions.
func (p *Publisher) PublishRunCompleted(ctx context.Context, event events.RunCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
