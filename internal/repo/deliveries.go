package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var deliveryColumns = []string{
	"id", "order_id", "borzo_order_id", "tracking_url", "courier_name", "courier_phone", "status",
	"estimated_cost", "actual_cost", "picked_up_at", "delivered_at", "created_at", "updated_at",
}

func (r *postgresRepo) GetDeliveryByOrder(ctx context.Context, orderID string) (entities.Delivery, error) {
	query, args := r.qb.Select(deliveryColumns...).
		From("deliveries").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var delivery Delivery
	err := r.getContext(ctx, &delivery, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Delivery{}, entities.NotFound("delivery", orderID)
	}
	if err != nil {
		return entities.Delivery{}, fmt.Errorf("failed to get delivery: %w", err)
	}
	return DeliveryToEntity(delivery), nil
}

// SaveDelivery writes the delivery of an order, replacing the previous
// booking if the order already had one.
func (r *postgresRepo) SaveDelivery(ctx context.Context, d entities.Delivery) (entities.Delivery, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	row := DeliveryFromEntity(d)

	query, args := r.qb.Insert("deliveries").
		Columns("id", "order_id", "borzo_order_id", "tracking_url", "courier_name", "courier_phone", "status",
			"estimated_cost", "actual_cost", "picked_up_at", "delivered_at").
		Values(row.ID, row.OrderID, row.BorzoOrderID, row.TrackingURL, row.CourierName, row.CourierPhone, row.Status,
			row.EstimatedCost, row.ActualCost, row.PickedUpAt, row.DeliveredAt).
		Suffix(`ON CONFLICT (order_id) DO UPDATE SET
			borzo_order_id = EXCLUDED.borzo_order_id,
			tracking_url = EXCLUDED.tracking_url,
			courier_name = EXCLUDED.courier_name,
			courier_phone = EXCLUDED.courier_phone,
			status = EXCLUDED.status,
			estimated_cost = EXCLUDED.estimated_cost,
			actual_cost = EXCLUDED.actual_cost,
			picked_up_at = EXCLUDED.picked_up_at,
			delivered_at = EXCLUDED.delivered_at,
			updated_at = now()
		RETURNING ` + strings.Join(deliveryColumns, ", ")).
		MustSql()

	var saved Delivery
	if err := r.getContext(ctx, &saved, query, args...); err != nil {
		return entities.Delivery{}, fmt.Errorf("failed to save delivery: %w", err)
	}
	return DeliveryToEntity(saved), nil
}

// GetRecipient returns the contact the courier calls at the buyer's door.
func (r *postgresRepo) GetRecipient(ctx context.Context, userID string) (entities.Contact, error) {
	query, args := r.qb.Select("name", "phone").
		From("users").
		Where(sq.Eq{"id": userID}).
		MustSql()

	var user struct {
		Name  string         `db:"name"`
		Phone sql.NullString `db:"phone"`
	}
	err := r.getContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Contact{}, entities.NotFound("user", userID)
	}
	if err != nil {
		return entities.Contact{}, fmt.Errorf("failed to get recipient: %w", err)
	}
	return entities.Contact{Name: user.Name, Phone: user.Phone.String}, nil
}
