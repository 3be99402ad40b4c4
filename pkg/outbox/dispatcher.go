package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	logger   *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(logger *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With(slog.String("component", "outbox_dispatcher")),
		producer: producer,
		topic:    topic,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	headers := make([]kafka.Header, 0, len(event.Headers)+3)
	for k, v := range event.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers,
		kafka.Header{Key: "event_id", Value: []byte(event.EventID)},
		kafka.Header{Key: "event_type", Value: []byte(event.Type)},
		kafka.Header{Key: "aggregate_type", Value: []byte(event.AggregateType)},
	)

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
		Time:    event.CreatedAt,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	d.logger.Debug("outbox event dispatched", slog.Int64("id", event.ID), slog.String("type", event.Type))
	return nil
}
