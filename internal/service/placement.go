package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/pricing"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/outbox"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/trm"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"

	"github.com/shopspring/decimal"
)

const orderAggregate = "order"

// CartStore hands placement the buyer's cart. LockCart must run inside a
// transaction and holds the cart until it ends, so a second checkout of the
// same cart waits and then sees it cleared.
type CartStore interface {
	LockCart(ctx context.Context, userID string) (entities.Cart, error)
	ClearCart(ctx context.Context, cartID string) error
}

// InventoryLedger reserves and returns variant stock. Both calls must run
// inside a transaction.
type InventoryLedger interface {
	ReserveStock(ctx context.Context, variantID string, quantity int) (entities.Variant, error)
	RestoreStock(ctx context.Context, variantID string, quantity int) (entities.Variant, error)
}

// CapacityGuard books and releases delivery slot capacity. Both calls must
// run inside a transaction.
type CapacityGuard interface {
	ReserveSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error)
	ReleaseSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error)
}

type AddressProvider interface {
	GetAddressByID(ctx context.Context, userID, addressID string) (entities.Address, error)
}

type OrderWriter interface {
	NextOrderSequence(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
}

type DeliveryEstimator interface {
	Estimate(ctx context.Context, to entities.GeoPoint) (entities.DeliveryEstimate, error)
}

type PaymentIntents interface {
	CreateIntent(ctx context.Context, orderID string, amount decimal.Decimal, receipt string) (entities.PaymentIntent, error)
}

type EventOutbox interface {
	Enqueue(ctx context.Context, event outbox.Event) error
}

type OrderConfig struct {
	NumberPrefix        string
	FallbackDeliveryFee decimal.Decimal
	RestockOnCancel     bool
}

type PlacementDeps struct {
	Carts     CartStore
	Inventory InventoryLedger
	Slots     CapacityGuard
	Addresses AddressProvider
	Orders    OrderWriter
	Estimator DeliveryEstimator
	Payments  PaymentIntents
	Events    EventOutbox
}

type PlaceOrderInput struct {
	UserID    string
	SlotID    string
	AddressID string
	Gift      entities.GiftOptions
}

type placementService struct {
	logger    *slog.Logger
	txManager trm.Manager
	deps      PlacementDeps
	fees      *feeEstimator
	prefix    string
	now       func() time.Time
}

func NewPlacementService(logger *slog.Logger, txManager trm.Manager, deps PlacementDeps, cfg OrderConfig) *placementService {
	logger = logger.With(slog.String("service", "placement"))
	return &placementService{
		logger:    logger,
		txManager: txManager,
		deps:      deps,
		fees:      newFeeEstimator(logger, deps.Estimator, cfg.FallbackDeliveryFee),
		prefix:    cfg.NumberPrefix,
		now:       time.Now,
	}
}

// PlaceOrder turns the buyer's cart into an order in one transaction: the slot
// booking, stock reservations, order rows, payment intent, cart clearing and
// the order.placed event either all persist or none do.
func (s *placementService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (entities.PlacedOrder, error) {
	start := time.Now()
	if err := in.Gift.Validate(); err != nil {
		placementsTotal.WithLabelValues(resultLabel(err)).Inc()
		return entities.PlacedOrder{}, err
	}

	var placed entities.PlacedOrder
	fn := func() error {
		var err error
		placed, err = s.place(ctx, in)
		return err
	}

	// A taken order number only happens when the sequence was reset behind
	// our back; a fresh transaction draws the next value.
	cfg := utils.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Multiplier:   2,
		RetryIf: func(err error) bool {
			return errors.Is(err, entities.ErrDuplicateOrderNumber)
		},
	}
	err := utils.Retry(ctx, cfg, fn)

	placementsTotal.WithLabelValues(resultLabel(err)).Inc()
	placementDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return entities.PlacedOrder{}, err
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", placed.Order.ID),
		slog.String("order_number", placed.Order.Number),
		slog.String("total", placed.Order.TotalAmount.StringFixed(2)),
	)
	return placed, nil
}

func (s *placementService) place(ctx context.Context, in PlaceOrderInput) (entities.PlacedOrder, error) {
	var placed entities.PlacedOrder

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		cart, err := s.deps.Carts.LockCart(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if cart.IsEmpty() {
			return entities.ErrEmptyCart
		}

		slot, err := s.deps.Slots.ReserveSlot(ctx, in.SlotID)
		if err != nil {
			return err
		}

		variants, err := s.reserveStock(ctx, cart.Items)
		if err != nil {
			return err
		}

		lines := make([]pricing.Line, 0, len(cart.Items))
		items := make([]entities.OrderItem, 0, len(cart.Items))
		for _, cartItem := range cart.Items {
			variant := variants[cartItem.VariantID]
			line := pricing.Line{Price: cartItem.PriceAtAdd, Quantity: cartItem.Quantity}
			lines = append(lines, line)
			items = append(items, entities.OrderItem{
				VariantID:       cartItem.VariantID,
				VariantName:     variant.DisplayName(),
				Quantity:        cartItem.Quantity,
				PriceAtPurchase: cartItem.PriceAtAdd,
				Subtotal:        pricing.LineSubtotal(line),
			})
		}

		address, err := s.deps.Addresses.GetAddressByID(ctx, in.UserID, in.AddressID)
		if err != nil {
			return err
		}

		estimate := s.fees.forPlacement(ctx, address)
		totals := pricing.ComputeTotals(lines, estimate.Fee)

		seq, err := s.deps.Orders.NextOrderSequence(ctx)
		if err != nil {
			return err
		}

		order, err := s.deps.Orders.CreateOrder(ctx, entities.Order{
			Number:      entities.FormatOrderNumber(s.prefix, s.now().Year(), seq),
			UserID:      in.UserID,
			Status:      entities.StatusPending,
			Subtotal:    totals.Subtotal,
			DeliveryFee: totals.DeliveryFee,
			TotalAmount: totals.Total,
			Gift:        in.Gift,
			Slot:        slot,
			Address:     address,
			Items:       items,
		})
		if err != nil {
			return err
		}

		payment, err := s.deps.Payments.CreateIntent(ctx, order.ID, order.TotalAmount, order.Number)
		if err != nil {
			return fmt.Errorf("failed to create payment intent: %w", err)
		}

		if err := s.deps.Carts.ClearCart(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		event, err := outbox.NewEvent(orderAggregate, order.ID, entities.EventOrderPlaced, entities.OrderPlacedEvent{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			UserID:      order.UserID,
			SlotID:      slot.ID,
			Status:      order.Status,
			TotalAmount: order.TotalAmount,
			ItemCount:   len(order.Items),
			OccurredAt:  s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := s.deps.Events.Enqueue(ctx, event); err != nil {
			return fmt.Errorf("failed to enqueue order event: %w", err)
		}

		placed = entities.PlacedOrder{Order: order, Payment: payment}
		return nil
	})
	if err != nil {
		return entities.PlacedOrder{}, err
	}
	return placed, nil
}

// reserveStock takes the variant locks in id order whatever the cart order
// is, so two checkouts sharing variants never wait on each other in a cycle.
func (s *placementService) reserveStock(ctx context.Context, cartItems []entities.CartItem) (map[string]entities.Variant, error) {
	ordered := slices.Clone(cartItems)
	slices.SortFunc(ordered, func(a, b entities.CartItem) int {
		return strings.Compare(a.VariantID, b.VariantID)
	})

	variants := make(map[string]entities.Variant, len(ordered))
	for _, item := range ordered {
		variant, err := s.deps.Inventory.ReserveStock(ctx, item.VariantID, item.Quantity)
		if err != nil {
			return nil, err
		}
		variants[item.VariantID] = variant
	}
	return variants, nil
}
