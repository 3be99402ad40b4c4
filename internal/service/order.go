package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/outbox"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/trm"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"
)

type OrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	// LockOrder must run inside a transaction; the row stays locked until it ends.
	LockOrder(ctx context.Context, orderID string) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error)
	LatestOrders(ctx context.Context, count int) ([]entities.Order, error)
}

type Cache interface {
	Get(key string) (entities.Order, bool)
	Set(key string, value entities.Order)
	Delete(key string)
}

type orderService struct {
	logger          *slog.Logger
	txManager       trm.Manager
	repo            OrderRepo
	inventory       InventoryLedger
	slots           CapacityGuard
	events          EventOutbox
	cache           Cache
	restockOnCancel bool
	now             func() time.Time
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	inventory InventoryLedger,
	slots CapacityGuard,
	events EventOutbox,
	cache Cache,
	cfg OrderConfig,
) *orderService {
	return &orderService{
		logger:          logger.With(slog.String("service", "order")),
		txManager:       txManager,
		repo:            repo,
		inventory:       inventory,
		slots:           slots,
		events:          events,
		cache:           cache,
		restockOnCancel: cfg.RestockOnCancel,
		now:             time.Now,
	}
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if order, ok := s.cache.Get(orderID); ok {
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByID(ctx, orderID)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	if err := utils.Retry(ctx, cfg, fn, entities.ErrNotFound); err != nil {
		return entities.Order{}, err
	}

	s.cache.Set(orderID, order)
	return order, nil
}

// GetUserOrder hides orders of other buyers behind NotFound.
func (s *orderService) GetUserOrder(ctx context.Context, userID, orderID string) (entities.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.UserID != userID {
		return entities.Order{}, entities.NotFound("order", orderID)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string) ([]entities.Order, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves the order through the state machine. With
// restock-on-cancel enabled a cancellation also hands the reserved stock and
// the slot booking back.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error) {
	var (
		order     entities.Order
		committed func()
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, committed, err = s.Transition(ctx, orderID, status)
		return err
	})
	if err != nil {
		return entities.Order{}, err
	}

	committed()
	return order, nil
}

// Transition changes the status within the caller's transaction. The
// returned func drops the cached copy and records the change; callers run
// it only after their outermost transaction has committed.
func (s *orderService) Transition(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, func(), error) {
	if !status.Valid() {
		return entities.Order{}, nil, entities.Invalid("status", "unknown order status %q", status)
	}

	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.ApplyTransition(status); err != nil {
			return err
		}
		if err := s.repo.UpdateOrderStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}
		order.UpdatedAt = s.now()

		restocked := false
		if order.Status == entities.StatusCancelled && s.restockOnCancel {
			if err := s.restock(ctx, order); err != nil {
				return err
			}
			restocked = true
		}

		event, err := outbox.NewEvent(orderAggregate, order.ID, entities.EventOrderStatusChanged, entities.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			From:        from,
			To:          order.Status,
			Restocked:   restocked,
			OccurredAt:  s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := s.events.Enqueue(ctx, event); err != nil {
			return fmt.Errorf("failed to enqueue status event: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, nil, err
	}

	committed := func() {
		s.cache.Delete(order.ID)
		statusChangesTotal.WithLabelValues(order.Status.String()).Inc()
		s.logger.InfoContext(ctx, "order status updated",
			slog.String("order_id", order.ID), slog.String("status", order.Status.String()))
	}
	return order, committed, nil
}

// restock takes the slot and variant locks in the same order placement does.
func (s *orderService) restock(ctx context.Context, order entities.Order) error {
	if _, err := s.slots.ReleaseSlot(ctx, order.Slot.ID); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	items := slices.Clone(order.Items)
	slices.SortFunc(items, func(a, b entities.OrderItem) int {
		return strings.Compare(a.VariantID, b.VariantID)
	})
	for _, item := range items {
		if _, err := s.inventory.RestoreStock(ctx, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
	}
	return nil
}

func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	orders, err := s.repo.LatestOrders(ctx, count)
	if err != nil {
		return fmt.Errorf("failed to load latest orders: %w", err)
	}
	for _, order := range orders {
		s.cache.Set(order.ID, order)
	}
	s.logger.Info("cache warmed up", slog.Int("orders", len(orders)))
	return nil
}
