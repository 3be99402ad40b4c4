package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/trm"
)

type DeliveryRepo interface {
	GetDeliveryByOrder(ctx context.Context, orderID string) (entities.Delivery, error)
	SaveDelivery(ctx context.Context, delivery entities.Delivery) (entities.Delivery, error)
	GetRecipient(ctx context.Context, userID string) (entities.Contact, error)
}

// Courier is the delivery partner that carries orders from the kitchen.
type Courier interface {
	CreateOrder(ctx context.Context, in entities.DispatchRequest) (entities.Dispatch, error)
	Track(ctx context.Context, externalID string) (entities.Tracking, error)
}

type deliveryService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	repo      DeliveryRepo
	courier   Courier
	now       func() time.Time
}

func NewDeliveryService(logger *slog.Logger, txManager trm.Manager, orders OrderRepo, repo DeliveryRepo, courier Courier) *deliveryService {
	return &deliveryService{
		logger:    logger.With(slog.String("service", "delivery")),
		txManager: txManager,
		orders:    orders,
		repo:      repo,
		courier:   courier,
		now:       time.Now,
	}
}

// Book hires a courier for the order. The order row stays locked while the
// partner is called, so concurrent bookings of one order hire one courier.
// Booking an order that already has a courier returns that delivery.
func (s *deliveryService) Book(ctx context.Context, orderID string) (entities.Delivery, error) {
	var (
		delivery entities.Delivery
		booked   bool
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.orders.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		delivery, err = s.repo.GetDeliveryByOrder(ctx, order.ID)
		switch {
		case err == nil && delivery.Booked():
			return nil
		case err != nil && !errors.Is(err, entities.ErrNotFound):
			return err
		}

		if !order.Status.CanBookCourier() {
			return entities.Invalid("order_id", "order %s is %s, a courier is booked once it is baking or ready", order.Number, order.Status)
		}
		to, ok := order.Address.Location.Get()
		if !ok {
			return entities.Invalid("delivery_address_id", "delivery address of order %s has no coordinates", order.Number)
		}
		recipient, err := s.repo.GetRecipient(ctx, order.UserID)
		if err != nil {
			return err
		}

		dispatch, err := s.courier.CreateOrder(ctx, entities.DispatchRequest{
			OrderNumber: order.Number,
			Recipient:   recipient,
			Address:     order.Address.Line(),
			To:          to,
			Note:        order.Gift.SpecialInstructions.OrElse(""),
		})
		if err != nil {
			return fmt.Errorf("failed to book courier: %w", err)
		}

		delivery.OrderID = order.ID
		delivery.ExternalID = dispatch.ExternalID
		delivery.Status = dispatch.Status
		delivery.EstimatedCost = entities.Some(order.DeliveryFee)
		delivery.ActualCost = entities.Some(dispatch.Cost)
		if dispatch.TrackingURL != "" {
			delivery.TrackingURL = entities.Some(dispatch.TrackingURL)
		}

		delivery, err = s.repo.SaveDelivery(ctx, delivery)
		if err != nil {
			s.logger.ErrorContext(ctx, "courier booked but delivery not saved",
				slog.String("order_id", order.ID), slog.String("borzo_order_id", dispatch.ExternalID))
			return err
		}
		booked = true
		return nil
	})
	if err != nil {
		return entities.Delivery{}, err
	}

	if booked {
		deliveriesBooked.Inc()
		s.logger.InfoContext(ctx, "courier booked",
			slog.String("order_id", delivery.OrderID), slog.String("borzo_order_id", delivery.ExternalID))
	}
	return delivery, nil
}

// Track refreshes the buyer's delivery from the partner and stores what
// changed. Orders of other buyers are reported as not found.
func (s *deliveryService) Track(ctx context.Context, userID, orderID string) (entities.Delivery, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Delivery{}, err
	}
	if order.UserID != userID {
		return entities.Delivery{}, entities.NotFound("order", orderID)
	}

	delivery, err := s.repo.GetDeliveryByOrder(ctx, orderID)
	if err != nil {
		return entities.Delivery{}, err
	}
	if !delivery.Booked() {
		return entities.Delivery{}, entities.NotFound("delivery", orderID)
	}

	tracking, err := s.courier.Track(ctx, delivery.ExternalID)
	if err != nil {
		return entities.Delivery{}, fmt.Errorf("failed to track delivery: %w", err)
	}

	if !delivery.Apply(tracking, s.now()) {
		return delivery, nil
	}
	saved, err := s.repo.SaveDelivery(ctx, delivery)
	if err != nil {
		return entities.Delivery{}, err
	}
	return saved, nil
}
