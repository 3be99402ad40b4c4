package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/config"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/idempotency"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
}

// Deduplicator remembers processed messages. A message is marked only once
// its update is applied or parked in the DLQ.
type Deduplicator interface {
	Processed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string) error
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaHandler struct {
	dlq      MessageWriter
	reader   MessageReader
	logger   *slog.Logger
	validate *validator.Validate
	updater  StatusUpdater
	dedup    Deduplicator
}

// NewKafkaHandler consumes kitchen status updates. dedup may be nil.
func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, updater StatusUpdater, dedup Deduplicator) *kafkaHandler {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.StatusTopic,
		MaxWait: cfg.ReaderMaxWait,
	})
	dlq := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
	}
	return newKafkaHandler(logger, reader, dlq, updater, dedup)
}

func newKafkaHandler(logger *slog.Logger, reader MessageReader, dlq MessageWriter, updater StatusUpdater, dedup Deduplicator) *kafkaHandler {
	return &kafkaHandler{
		logger:   logger.With(slog.String("handler", "kafka")),
		reader:   reader,
		dlq:      dlq,
		validate: validator.New(),
		updater:  updater,
		dedup:    dedup,
	}
}

func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			} else {
				h.logger.Error("failed to fetch message", slog.Any("error", err))
				continue
			}
		}

		h.process(ctx, m)

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			commitErrors.Inc()
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) process(ctx context.Context, m kafka.Message) {
	statusUpdatesInProgress.Inc()
	defer statusUpdatesInProgress.Dec()
	start := time.Now()

	key := idempotency.MessageKey(m.Topic, m.Partition, m.Offset)
	if h.duplicate(ctx, key) {
		statusUpdatesDuplicate.Inc()
		h.logger.Debug("skipping duplicate message", slog.Int64("offset", m.Offset))
		return
	}

	if err := h.handleStatusUpdate(ctx, m); err != nil {
		statusUpdatesFailed.Inc()
		h.logger.Error("failed to handle message", slog.Any("error", err))

		// В библиотеке уже есть retry
		if err := h.WriteToDLQ(ctx, m, err); err != nil {
			h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
			return
		}
		statusUpdatesDLQ.Inc()
		h.markProcessed(ctx, key)
		return
	}

	h.markProcessed(ctx, key)
	statusUpdatesProcessed.Inc()
	statusUpdateDuration.Observe(time.Since(start).Seconds())
}

// duplicate reports whether the message was already processed. Redis
// failures let the message through.
func (h *kafkaHandler) duplicate(ctx context.Context, key string) bool {
	if h.dedup == nil {
		return false
	}
	processed, err := h.dedup.Processed(ctx, key)
	if err != nil {
		h.logger.Warn("failed to check message deduplication", slog.Any("error", err))
		return false
	}
	return processed
}

func (h *kafkaHandler) markProcessed(ctx context.Context, key string) {
	if h.dedup == nil {
		return
	}
	if err := h.dedup.MarkProcessed(ctx, key); err != nil {
		h.logger.Warn("failed to mark message processed", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *kafkaHandler) handleStatusUpdate(ctx context.Context, m kafka.Message) error {
	var msg StatusUpdateMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return fmt.Errorf("%w: malformed status update: %w", entities.ErrValidation, err)
	}

	if err := h.validate.Struct(msg); err != nil {
		return fmt.Errorf("%w: invalid status update: %w", entities.ErrValidation, err)
	}

	_, err := h.updater.UpdateStatus(ctx, msg.OrderID, entities.OrderStatus(msg.Status))
	return err
}

func (h *kafkaHandler) WriteToDLQ(ctx context.Context, m kafka.Message, cause error) error {
	dead := kafka.Message{
		Topic: fmt.Sprintf("%s-dlq", m.Topic),
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers,
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "error_kind", Value: []byte(entities.KindOf(cause))},
		),
	}
	return h.dlq.WriteMessages(ctx, dead)
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}
