package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinLineQuantity = 1
	MaxLineQuantity = 10
)

type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
}

type CartItem struct {
	ID          string
	CartID      string
	VariantID   string
	VariantName string
	Quantity    int
	PriceAtAdd  decimal.Decimal
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}

func (c Cart) ItemByVariant(variantID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.VariantID == variantID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) Item(itemID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.PriceAtAdd.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func ValidateLineQuantity(quantity int) error {
	if quantity < MinLineQuantity || quantity > MaxLineQuantity {
		return Invalid("quantity", "quantity must be between %d and %d", MinLineQuantity, MaxLineQuantity)
	}
	return nil
}
