package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var slotColumns = []string{
	"id", "date", "start_time", "end_time", "max_capacity", "current_bookings", "is_active",
}

func (r *postgresRepo) GetSlotByID(ctx context.Context, slotID string) (entities.DeliverySlot, error) {
	query, args := r.qb.Select(slotColumns...).
		From("delivery_slots").
		Where(sq.Eq{"id": slotID}).
		MustSql()

	var slot Slot
	err := r.getContext(ctx, &slot, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.DeliverySlot{}, entities.NotFound("delivery slot", slotID)
	}
	if err != nil {
		return entities.DeliverySlot{}, fmt.Errorf("failed to get slot: %w", err)
	}
	return SlotToEntity(slot), nil
}

func (r *postgresRepo) lockSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error) {
	query, args := r.qb.Select(slotColumns...).
		From("delivery_slots").
		Where(sq.Eq{"id": slotID}).
		Suffix("FOR UPDATE").
		MustSql()

	var slot Slot
	err := r.getContext(ctx, &slot, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.DeliverySlot{}, entities.NotFound("delivery slot", slotID)
	}
	if err != nil {
		return entities.DeliverySlot{}, fmt.Errorf("failed to lock slot: %w", err)
	}
	return SlotToEntity(slot), nil
}

func (r *postgresRepo) saveBookings(ctx context.Context, slot entities.DeliverySlot) error {
	query, args := r.qb.Update("delivery_slots").
		Set("current_bookings", slot.CurrentBookings).
		Where(sq.Eq{"id": slot.ID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update slot bookings: %w", err)
	}
	return nil
}

// ReserveSlot books one unit of the slot's capacity under a row lock held
// until the surrounding transaction ends.
func (r *postgresRepo) ReserveSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error) {
	if err := requireTx(ctx); err != nil {
		return entities.DeliverySlot{}, err
	}

	slot, err := r.lockSlot(ctx, slotID)
	if err != nil {
		return entities.DeliverySlot{}, err
	}
	if err := slot.Book(); err != nil {
		return entities.DeliverySlot{}, err
	}
	if err := r.saveBookings(ctx, slot); err != nil {
		return entities.DeliverySlot{}, err
	}
	return slot, nil
}

func (r *postgresRepo) ReleaseSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error) {
	if err := requireTx(ctx); err != nil {
		return entities.DeliverySlot{}, err
	}

	slot, err := r.lockSlot(ctx, slotID)
	if err != nil {
		return entities.DeliverySlot{}, err
	}
	slot.Release()
	if err := r.saveBookings(ctx, slot); err != nil {
		return entities.DeliverySlot{}, err
	}
	return slot, nil
}

// AvailableSlots returns active slots with free capacity between from and to
// inclusive, ordered by date and start time.
func (r *postgresRepo) AvailableSlots(ctx context.Context, from, to time.Time) ([]entities.DeliverySlot, error) {
	query, args := r.qb.Select(slotColumns...).
		From("delivery_slots").
		Where(sq.Eq{"is_active": true}).
		Where("current_bookings < max_capacity").
		Where(sq.GtOrEq{"date": from.Format(dateLayout)}).
		Where(sq.LtOrEq{"date": to.Format(dateLayout)}).
		OrderBy("date", "start_time").
		MustSql()

	var slots []Slot
	if err := r.selectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select slots: %w", err)
	}

	result := make([]entities.DeliverySlot, 0, len(slots))
	for _, slot := range slots {
		result = append(result, SlotToEntity(slot))
	}
	return result, nil
}

// CreateSlots inserts the given slots, skipping any (date, start time) pair
// that already exists. It returns how many rows were inserted.
func (r *postgresRepo) CreateSlots(ctx context.Context, slots []entities.DeliverySlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	builder := r.qb.Insert("delivery_slots").
		Columns(slotColumns...)
	for _, slot := range slots {
		id := slot.ID
		if id == "" {
			id = uuid.NewString()
		}
		builder = builder.Values(
			id, slot.Date.Format(dateLayout), slot.StartTime, slot.EndTime,
			slot.MaxCapacity, slot.CurrentBookings, slot.IsActive,
		)
	}
	query, args := builder.
		Suffix("ON CONFLICT (date, start_time) DO NOTHING").
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert slots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count inserted slots: %w", err)
	}
	return int(n), nil
}
