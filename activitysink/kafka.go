package activitysink

import (
	"context"
	"encoding/json"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
	goerrors "github.com/goliatone/go-errors"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer used by the sink
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka publishes activity events as normalized JSON records, keyed by
// account id
type Kafka struct {
	writer    MessageWriter
	topic     string
	timeout   time.Duration
	normalize []activitymap.Option
}

var _ accounts.ActivitySink = (*Kafka)(nil)

// NewKafkaWriter returns a writer balancing across brokers
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewKafka returns a sink writing through w. Topic is set per message
// when the writer has none.
func NewKafka(w MessageWriter, topic string, opts ...activitymap.Option) *Kafka {
	return &Kafka{
		writer:    w,
		topic:     topic,
		timeout:   5 * time.Second,
		normalize: opts,
	}
}

func (k *Kafka) Record(ctx context.Context, event accounts.ActivityEvent) error {
	value, err := json.Marshal(activitymap.Normalize(event, k.normalize...))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode activity event")
	}

	msg := kafka.Message{
		Key:   []byte(event.AccountID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if w, ok := k.writer.(*kafka.Writer); !ok || w.Topic == "" {
		msg.Topic = k.topic
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to publish activity event").
			WithMetadata(map[string]any{
				"topic": k.topic,
				"event": string(event.EventType),
			})
	}

	return nil
}
