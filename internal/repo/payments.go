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

var paymentColumns = []string{
	"id", "order_id", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature",
	"status", "amount", "currency", "failure_reason", "created_at",
}

func (r *postgresRepo) CreatePayment(ctx context.Context, payment entities.PaymentIntent) (entities.PaymentIntent, error) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	query, args := r.qb.Insert("payments").
		Columns("id", "order_id", "razorpay_order_id", "status", "amount", "currency").
		Values(payment.ID, payment.OrderID, payment.GatewayOrderID, payment.Status, payment.Amount, payment.Currency).
		Suffix("RETURNING created_at").
		MustSql()

	if err := r.getContext(ctx, &payment.CreatedAt, query, args...); err != nil {
		return entities.PaymentIntent{}, fmt.Errorf("failed to insert payment: %w", err)
	}
	return payment, nil
}

// LockPaymentByGatewayOrderID loads the payment for a gateway order under a row
// lock, so two verifications of one payment run one after another.
func (r *postgresRepo) LockPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (entities.PaymentIntent, error) {
	if err := requireTx(ctx); err != nil {
		return entities.PaymentIntent{}, err
	}

	query, args := r.qb.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"razorpay_order_id": gatewayOrderID}).
		Suffix("FOR UPDATE").
		MustSql()

	var payment Payment
	err := r.getContext(ctx, &payment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.PaymentIntent{}, entities.NotFound("payment", gatewayOrderID)
	}
	if err != nil {
		return entities.PaymentIntent{}, fmt.Errorf("failed to lock payment: %w", err)
	}
	return PaymentToEntity(payment), nil
}

func (r *postgresRepo) MarkPaymentCaptured(ctx context.Context, paymentID, gatewayPaymentID, signature string) error {
	query, args := r.qb.Update("payments").
		Set("status", entities.PaymentCaptured).
		Set("razorpay_payment_id", gatewayPaymentID).
		Set("razorpay_signature", signature).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": paymentID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to capture payment: %w", err)
	}
	return nil
}
