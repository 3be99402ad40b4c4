package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/pkg/outbox"

	sq "github.com/Masterminds/squirrel"
)

// lockBatchQuery claims pending rows, and rows whose lease ran out, for one
// relay. SKIP LOCKED lets several relays share the table.
const lockBatchQuery = `
UPDATE outbox
SET status = 'in_progress',
    locked_until = now() + make_interval(secs => $1)
WHERE id IN (
    SELECT id FROM outbox
    WHERE status = 'pending'
       OR (status = 'in_progress' AND locked_until < now())
    ORDER BY id
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
RETURNING id, event_id, aggregate_type, aggregate_id, type, payload, headers, attempts, created_at`

// Enqueue writes the event in the caller's transaction, so it becomes visible
// to the relay only if the state change that produced it commits.
func (r *postgresRepo) Enqueue(ctx context.Context, event outbox.Event) error {
	headers, err := json.Marshal(event.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal event headers: %w", err)
	}

	query, args := r.qb.Insert("outbox").
		Columns("event_id", "aggregate_type", "aggregate_id", "type", "payload", "headers", "status").
		Values(event.EventID, event.AggregateType, event.AggregateID, event.Type, string(event.Payload), string(headers), outbox.StatusPending).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func (r *postgresRepo) LockBatch(ctx context.Context, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	var rows []OutboxEvent
	if err := r.selectContext(ctx, &rows, lockBatchQuery, lease.Seconds(), batchSize); err != nil {
		return nil, fmt.Errorf("failed to lock outbox batch: %w", err)
	}

	events := make([]outbox.Event, 0, len(rows))
	for _, row := range rows {
		headers := map[string]string{}
		if len(row.Headers) > 0 {
			if err := json.Unmarshal(row.Headers, &headers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal headers of event %d: %w", row.ID, err)
			}
		}
		events = append(events, outbox.Event{
			ID:            row.ID,
			EventID:       row.EventID,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			Type:          row.Type,
			Payload:       row.Payload,
			Headers:       headers,
			Status:        outbox.StatusInProgress,
			Attempts:      row.Attempts,
			CreatedAt:     row.CreatedAt,
		})
	}
	return events, nil
}

func (r *postgresRepo) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args := r.qb.Update("outbox").
		Set("status", outbox.StatusSent).
		Set("locked_until", nil).
		Set("last_error", nil).
		Where(sq.Eq{"id": ids}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark outbox events sent: %w", err)
	}
	return nil
}

// MarkFailed puts the event back in the queue, or parks it as failed once it
// has used up maxAttempts.
func (r *postgresRepo) MarkFailed(ctx context.Context, id int64, errMsg string, maxAttempts int) error {
	query, args := r.qb.Update("outbox").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", errMsg).
		Set("locked_until", nil).
		Set("status", sq.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END", maxAttempts, outbox.StatusFailed, outbox.StatusPending)).
		Where(sq.Eq{"id": id}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}
