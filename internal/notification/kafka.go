package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "ledger.transactions"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as JSON records keyed by destination, so every
// event for one account lands on the same partition in order.
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaNotifier builds a notifier writing to topic on the given brokers.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Send encodes the message and writes it to Kafka.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.Destination),
		Value: data,
	})
}

// Close flushes pending writes and releases the writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
