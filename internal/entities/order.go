package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxCustomMessageLen       = 200
	MaxSpecialInstructionsLen = 500
)

type GiftOptions struct {
	CustomMessage       Optional[string]
	IsGift              bool
	SpecialInstructions Optional[string]
}

func (g GiftOptions) Validate() error {
	if msg, ok := g.CustomMessage.Get(); ok && len([]rune(msg)) > MaxCustomMessageLen {
		return Invalid("custom_message", "custom message must be at most %d characters", MaxCustomMessageLen)
	}
	if ins, ok := g.SpecialInstructions.Get(); ok && len([]rune(ins)) > MaxSpecialInstructionsLen {
		return Invalid("special_instructions", "special instructions must be at most %d characters", MaxSpecialInstructionsLen)
	}
	return nil
}

type Order struct {
	ID          string
	Number      string
	UserID      string
	Status      OrderStatus
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	TotalAmount decimal.Decimal
	Gift        GiftOptions

	// Slot and Address are snapshots loaded together with the order.
	Slot    DeliverySlot
	Address Address
	Items   []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID              string
	OrderID         string
	VariantID       string
	VariantName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
	Subtotal        decimal.Decimal
}

// PlacedOrder is the result of a successful checkout.
type PlacedOrder struct {
	Order   Order
	Payment PaymentIntent
}

// FormatOrderNumber renders numbers like LF-2026-0042.
func FormatOrderNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}
