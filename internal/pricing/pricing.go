// Package pricing computes order totals with fixed-point arithmetic.
package pricing

import "github.com/shopspring/decimal"

const places = 2

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

func LineSubtotal(l Line) decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(places)
}

// ComputeTotals sums price*quantity over lines and adds the delivery fee.
func ComputeTotals(lines []Line, deliveryFee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineSubtotal(l))
	}
	subtotal = subtotal.Round(places)
	fee := deliveryFee.Round(places)

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}

// ToMinorUnits converts rupees to paise as payment gateways expect.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(places).Round(0).IntPart()
}

func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -places)
}
