package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

const CurrencyINR = "INR"

type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "CREATED"
	PaymentCaptured PaymentStatus = "CAPTURED"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type PaymentIntent struct {
	ID               string
	OrderID          string
	GatewayKeyID     string
	GatewayOrderID   string
	GatewayPaymentID Optional[string]
	Signature        Optional[string]
	Status           PaymentStatus
	Amount           decimal.Decimal
	Currency         string
	FailureReason    Optional[string]
	CreatedAt        time.Time
}

// GatewayOrder is the provider-side order a buyer pays against.
type GatewayOrder struct {
	ID        string
	AmountDue decimal.Decimal
	Currency  string
	Receipt   string
}

type VerifyPaymentInput struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}
