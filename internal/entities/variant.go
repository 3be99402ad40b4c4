package entities

import "github.com/shopspring/decimal"

type Variant struct {
	ID               string
	ProductID        string
	ProductName      string
	Name             string
	SKU              string
	Price            decimal.Decimal
	StockQuantity    int
	IsAvailable      bool
	ProductAvailable bool
}

// DisplayName is the name shown to buyers, e.g. "Chocolate Truffle (1 kg)".
func (v Variant) DisplayName() string {
	if v.ProductName == "" {
		return v.Name
	}
	if v.Name == "" {
		return v.ProductName
	}
	return v.ProductName + " (" + v.Name + ")"
}

func (v Variant) Purchasable() bool {
	return v.IsAvailable && v.ProductAvailable
}

// Reserve takes quantity units out of stock.
func (v *Variant) Reserve(quantity int) error {
	if quantity < 1 {
		return Invalid("quantity", "quantity must be at least 1, got %d", quantity)
	}
	if v.StockQuantity < quantity {
		return &InsufficientStockError{
			VariantID: v.ID,
			Name:      v.DisplayName(),
			Requested: quantity,
			Remaining: v.StockQuantity,
		}
	}
	v.StockQuantity -= quantity
	return nil
}

func (v *Variant) Restock(quantity int) error {
	if quantity < 1 {
		return Invalid("quantity", "quantity must be at least 1, got %d", quantity)
	}
	v.StockQuantity += quantity
	return nil
}
