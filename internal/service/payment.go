package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/trm"

	"github.com/shopspring/decimal"
)

type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (entities.GatewayOrder, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

type PaymentRepo interface {
	CreatePayment(ctx context.Context, payment entities.PaymentIntent) (entities.PaymentIntent, error)
	LockPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (entities.PaymentIntent, error)
	MarkPaymentCaptured(ctx context.Context, paymentID, gatewayPaymentID, signature string) error
}

type OrderStatusUpdater interface {
	GetUserOrder(ctx context.Context, userID, orderID string) (entities.Order, error)
	// Transition joins the caller's transaction; the returned func must run
	// after that transaction commits.
	Transition(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, func(), error)
}

type paymentService struct {
	logger    *slog.Logger
	txManager trm.Manager
	gateway   PaymentGateway
	repo      PaymentRepo
	orders    OrderStatusUpdater
}

func NewPaymentService(logger *slog.Logger, txManager trm.Manager, gateway PaymentGateway, repo PaymentRepo, orders OrderStatusUpdater) *paymentService {
	return &paymentService{
		logger:    logger.With(slog.String("service", "payment")),
		txManager: txManager,
		gateway:   gateway,
		repo:      repo,
		orders:    orders,
	}
}

// CreateIntent opens a gateway order for amount and records the payment in
// the caller's transaction.
func (s *paymentService) CreateIntent(ctx context.Context, orderID string, amount decimal.Decimal, receipt string) (entities.PaymentIntent, error) {
	gatewayOrder, err := s.gateway.CreateOrder(ctx, amount, entities.CurrencyINR, receipt)
	if err != nil {
		return entities.PaymentIntent{}, err
	}

	currency := gatewayOrder.Currency
	if currency == "" {
		currency = entities.CurrencyINR
	}
	payment, err := s.repo.CreatePayment(ctx, entities.PaymentIntent{
		OrderID:        orderID,
		GatewayOrderID: gatewayOrder.ID,
		Status:         entities.PaymentCreated,
		Amount:         amount,
		Currency:       currency,
	})
	if err != nil {
		return entities.PaymentIntent{}, err
	}
	payment.GatewayKeyID = s.gateway.KeyID()
	return payment, nil
}

// VerifyPayment checks the checkout signature, captures the payment and
// confirms the order. Verifying an already captured payment is a no-op.
func (s *paymentService) VerifyPayment(ctx context.Context, userID string, in entities.VerifyPaymentInput) (entities.PaymentIntent, error) {
	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		s.logger.WarnContext(ctx, "payment signature mismatch",
			slog.String("order_id", in.OrderID), slog.String("gateway_order_id", in.GatewayOrderID))
		return entities.PaymentIntent{}, entities.Invalid("signature", "payment signature verification failed")
	}

	var (
		payment   entities.PaymentIntent
		confirmed func()
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.orders.GetUserOrder(ctx, userID, in.OrderID); err != nil {
			return err
		}

		var err error
		payment, err = s.repo.LockPaymentByGatewayOrderID(ctx, in.GatewayOrderID)
		if err != nil {
			return err
		}
		if payment.OrderID != in.OrderID {
			return entities.Invalid("razorpay_order_id", "payment does not belong to order %s", in.OrderID)
		}
		if payment.Status == entities.PaymentCaptured {
			return nil
		}

		if err := s.repo.MarkPaymentCaptured(ctx, payment.ID, in.GatewayPaymentID, in.Signature); err != nil {
			return err
		}
		payment.Status = entities.PaymentCaptured
		payment.GatewayPaymentID = entities.Some(in.GatewayPaymentID)
		payment.Signature = entities.Some(in.Signature)

		if _, confirmed, err = s.orders.Transition(ctx, in.OrderID, entities.StatusConfirmed); err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.PaymentIntent{}, err
	}
	if confirmed != nil {
		confirmed()
	}

	payment.GatewayKeyID = s.gateway.KeyID()
	s.logger.InfoContext(ctx, "payment captured",
		slog.String("order_id", in.OrderID), slog.String("payment_id", payment.ID))
	return payment, nil
}
