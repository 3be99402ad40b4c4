package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const orderNumberConstraint = "orders_order_number_key"

var orderColumns = []string{
	"id", "order_number", "status", "subtotal", "delivery_fee", "total_amount",
	"custom_message", "is_gift", "special_instructions",
	"user_id", "delivery_slot_id", "delivery_address_id", "created_at", "updated_at",
}

// NextOrderSequence draws the next value of the global order number sequence.
// Values are never handed out twice, even when the drawing transaction rolls back.
func (r *postgresRepo) NextOrderSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.getContext(ctx, &seq, "SELECT nextval('order_number_seq')"); err != nil {
		return 0, fmt.Errorf("failed to draw order number: %w", err)
	}
	return seq, nil
}

// CreateOrder persists the order with its items and returns it with ids and
// timestamps filled in.
func (r *postgresRepo) CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	if err := requireTx(ctx); err != nil {
		return entities.Order{}, err
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	query, args := r.qb.Insert("orders").
		Columns(
			"id", "order_number", "status", "subtotal", "delivery_fee", "total_amount",
			"custom_message", "is_gift", "special_instructions",
			"user_id", "delivery_slot_id", "delivery_address_id").
		Values(
			order.ID, order.Number, order.Status, order.Subtotal, order.DeliveryFee, order.TotalAmount,
			nullString(order.Gift.CustomMessage), order.Gift.IsGift, nullString(order.Gift.SpecialInstructions),
			order.UserID, order.Slot.ID, order.Address.ID).
		Suffix("RETURNING created_at, updated_at").
		MustSql()

	var ts struct {
		CreatedAt sql.NullTime `db:"created_at"`
		UpdatedAt sql.NullTime `db:"updated_at"`
	}
	err := r.getContext(ctx, &ts, query, args...)
	if isUniqueViolation(err, orderNumberConstraint) {
		return entities.Order{}, entities.ErrDuplicateOrderNumber
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	order.CreatedAt = ts.CreatedAt.Time
	order.UpdatedAt = ts.UpdatedAt.Time

	if len(order.Items) == 0 {
		return order, nil
	}

	builder := r.qb.Insert("order_items").
		Columns("id", "order_id", "variant_id", "variant_name", "position", "quantity", "price_at_purchase", "subtotal")
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = order.ID
		builder = builder.Values(
			item.ID, item.OrderID, item.VariantID, item.VariantName, i,
			item.Quantity, item.PriceAtPurchase, item.Subtotal)
	}
	query, args = builder.MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order items: %w", err)
	}
	return order, nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		MustSql()

	return r.getOrder(ctx, orderID, query, args)
}

// LockOrder loads the order and keeps its row locked until the surrounding
// transaction ends, so status changes on one order are serialized.
func (r *postgresRepo) LockOrder(ctx context.Context, orderID string) (entities.Order, error) {
	if err := requireTx(ctx); err != nil {
		return entities.Order{}, err
	}

	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		Suffix("FOR UPDATE").
		MustSql()

	return r.getOrder(ctx, orderID, query, args)
}

func (r *postgresRepo) getOrder(ctx context.Context, orderID, query string, args []any) (entities.Order, error) {
	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.NotFound("order", orderID)
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	orders, err := r.hydrateOrders(ctx, []Order{order})
	if err != nil {
		return entities.Order{}, err
	}
	return orders[0], nil
}

func (r *postgresRepo) UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	query, args := r.qb.Update("orders").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated order: %w", err)
	}
	if n == 0 {
		return entities.NotFound("order", orderID)
	}
	return nil
}

func (r *postgresRepo) ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	return r.hydrateOrders(ctx, orders)
}

func (r *postgresRepo) LatestOrders(ctx context.Context, count int) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		Limit(uint64(count)).
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	return r.hydrateOrders(ctx, orders)
}

// hydrateOrders loads items, slots and addresses for a page of orders with one
// query per table.
func (r *postgresRepo) hydrateOrders(ctx context.Context, orders []Order) ([]entities.Order, error) {
	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]string, 0, len(orders))
	slotIDs := make([]string, 0, len(orders))
	addressIDs := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
		slotIDs = append(slotIDs, order.DeliverySlotID)
		addressIDs = append(addressIDs, order.DeliveryAddressID)
	}

	// Получаем позиции заказов
	query, args := r.qb.Select(
		"id", "order_id", "variant_id", "variant_name", "quantity", "price_at_purchase", "subtotal").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "position").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[string][]OrderItem, len(ids))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	// Получаем слоты доставки
	query, args = r.qb.Select(slotColumns...).
		From("delivery_slots").
		Where(sq.Eq{"id": slotIDs}).
		MustSql()

	var slots []Slot
	if err := r.selectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select slots: %w", err)
	}
	slotMap := make(map[string]Slot, len(slots))
	for _, slot := range slots {
		slotMap[slot.ID] = slot
	}

	// Получаем адреса доставки
	query, args = r.qb.Select(addressColumns...).
		From("addresses").
		Where(sq.Eq{"id": addressIDs}).
		MustSql()

	var addresses []Address
	if err := r.selectContext(ctx, &addresses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select addresses: %w", err)
	}
	addressMap := make(map[string]Address, len(addresses))
	for _, address := range addresses {
		addressMap[address.ID] = address
	}

	// Формируем ответ
	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(
			order,
			slotMap[order.DeliverySlotID],
			addressMap[order.DeliveryAddressID],
			itemsMap[order.ID],
		))
	}
	return result, nil
}
