package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultResetTopic = "password_reset_events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes reset notices as JSON events keyed by user id, so
// every notice for a user lands on the same partition in order.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

// resetEvent is the wire shape of a published notice.
type resetEvent struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    ResetNotice `json:"payload"`
}

// NewKafkaNotifier builds a notifier writing to topic on the given brokers.
// Connections are made lazily on first publish.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultResetTopic
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}

	return &KafkaNotifier{writer: w, topic: topic}
}

func (k *KafkaNotifier) NotifyPasswordReset(ctx context.Context, n ResetNotice) error {
	data, err := json.Marshal(resetEvent{
		Type:       "password_reset_requested",
		OccurredAt: time.Now().UTC(),
		Payload:    n,
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.UserID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes pending writes and closes broker connections.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
