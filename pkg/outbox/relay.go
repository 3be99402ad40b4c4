package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "outbox",
		Name:      "events_published_total",
		Help:      "Total number of outbox events published to Kafka.",
	})

	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Total number of failed outbox publish attempts.",
	})
)

type Store interface {
	// LockBatch claims up to batchSize pending events for lease.
	LockBatch(ctx context.Context, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	// MarkFailed puts the event back to pending, or to failed once maxAttempts is reached.
	MarkFailed(ctx context.Context, id int64, errMsg string, maxAttempts int) error
}

type Config struct {
	Interval    time.Duration
	BatchSize   int
	Lease       time.Duration
	MaxAttempts int
}

type Relay struct {
	logger     *slog.Logger
	store      Store
	dispatcher *Dispatcher
	cfg        Config
}

func NewRelay(logger *slog.Logger, store Store, dispatcher *Dispatcher, cfg Config) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Relay{
		logger:     logger.With(slog.String("component", "outbox_relay")),
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Start runs the relay in the background until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	go r.Run(ctx)
	return nil
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.flush(ctx); err != nil {
				r.logger.Error("failed to flush outbox", slog.Any("error", err))
			}
		}
	}
}

func (r *Relay) flush(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.cfg.BatchSize, r.cfg.Lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	sent := make([]int64, 0, len(events))
	for _, e := range events {
		if err := r.dispatcher.Dispatch(ctx, e); err != nil {
			eventsFailed.Inc()
			r.logger.Warn("failed to dispatch outbox event",
				slog.Int64("id", e.ID), slog.String("type", e.Type), slog.Any("error", err))
			if err := r.store.MarkFailed(ctx, e.ID, err.Error(), r.cfg.MaxAttempts); err != nil {
				r.logger.Error("failed to mark outbox event failed", slog.Int64("id", e.ID), slog.Any("error", err))
			}
			continue
		}
		sent = append(sent, e.ID)
	}

	if len(sent) > 0 {
		if err := r.store.MarkSent(ctx, sent); err != nil {
			return 0, err
		}
		eventsPublished.Add(float64(len(sent)))
	}
	return len(sent), nil
}
