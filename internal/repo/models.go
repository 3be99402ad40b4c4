package repo

import (
	"database/sql"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/shopspring/decimal"
)

type Variant struct {
	ID               string          `db:"id"`
	ProductID        string          `db:"product_id"`
	ProductName      string          `db:"product_name"`
	Name             string          `db:"name"`
	SKU              sql.NullString  `db:"sku"`
	Price            decimal.Decimal `db:"price"`
	StockQuantity    int             `db:"stock_quantity"`
	IsAvailable      bool            `db:"is_available"`
	ProductAvailable bool            `db:"product_available"`
}

type Slot struct {
	ID              string    `db:"id"`
	Date            time.Time `db:"date"`
	StartTime       string    `db:"start_time"`
	EndTime         string    `db:"end_time"`
	MaxCapacity     int       `db:"max_capacity"`
	CurrentBookings int       `db:"current_bookings"`
	IsActive        bool      `db:"is_active"`
}

type Address struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Label     string          `db:"label"`
	Street    string          `db:"street"`
	City      string          `db:"city"`
	Pincode   string          `db:"pincode"`
	Landmark  sql.NullString  `db:"landmark"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
}

type Cart struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

type CartItem struct {
	ID          string          `db:"id"`
	CartID      string          `db:"cart_id"`
	VariantID   string          `db:"variant_id"`
	ProductName string          `db:"product_name"`
	VariantName string          `db:"variant_name"`
	Quantity    int             `db:"quantity"`
	PriceAtAdd  decimal.Decimal `db:"price_at_add"`
}

type Order struct {
	ID                  string          `db:"id"`
	OrderNumber         string          `db:"order_number"`
	Status              string          `db:"status"`
	Subtotal            decimal.Decimal `db:"subtotal"`
	DeliveryFee         decimal.Decimal `db:"delivery_fee"`
	TotalAmount         decimal.Decimal `db:"total_amount"`
	CustomMessage       sql.NullString  `db:"custom_message"`
	IsGift              bool            `db:"is_gift"`
	SpecialInstructions sql.NullString  `db:"special_instructions"`
	UserID              string          `db:"user_id"`
	DeliverySlotID      string          `db:"delivery_slot_id"`
	DeliveryAddressID   string          `db:"delivery_address_id"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ID              string          `db:"id"`
	OrderID         string          `db:"order_id"`
	VariantID       string          `db:"variant_id"`
	VariantName     string          `db:"variant_name"`
	Quantity        int             `db:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
	Subtotal        decimal.Decimal `db:"subtotal"`
}

type Payment struct {
	ID                string          `db:"id"`
	OrderID           string          `db:"order_id"`
	RazorpayOrderID   string          `db:"razorpay_order_id"`
	RazorpayPaymentID sql.NullString  `db:"razorpay_payment_id"`
	RazorpaySignature sql.NullString  `db:"razorpay_signature"`
	Status            string          `db:"status"`
	Amount            decimal.Decimal `db:"amount"`
	Currency          string          `db:"currency"`
	FailureReason     sql.NullString  `db:"failure_reason"`
	CreatedAt         time.Time       `db:"created_at"`
}

type Delivery struct {
	ID            string              `db:"id"`
	OrderID       string              `db:"order_id"`
	BorzoOrderID  sql.NullString      `db:"borzo_order_id"`
	TrackingURL   sql.NullString      `db:"tracking_url"`
	CourierName   sql.NullString      `db:"courier_name"`
	CourierPhone  sql.NullString      `db:"courier_phone"`
	Status        string              `db:"status"`
	EstimatedCost decimal.NullDecimal `db:"estimated_cost"`
	ActualCost    decimal.NullDecimal `db:"actual_cost"`
	PickedUpAt    sql.NullTime        `db:"picked_up_at"`
	DeliveredAt   sql.NullTime        `db:"delivered_at"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

type OutboxEvent struct {
	ID            int64     `db:"id"`
	EventID       string    `db:"event_id"`
	AggregateType string    `db:"aggregate_type"`
	AggregateID   string    `db:"aggregate_id"`
	Type          string    `db:"type"`
	Payload       []byte    `db:"payload"`
	Headers       []byte    `db:"headers"`
	Attempts      int       `db:"attempts"`
	CreatedAt     time.Time `db:"created_at"`
}

func VariantToEntity(v Variant) entities.Variant {
	return entities.Variant{
		ID:               v.ID,
		ProductID:        v.ProductID,
		ProductName:      v.ProductName,
		Name:             v.Name,
		SKU:              v.SKU.String,
		Price:            v.Price,
		StockQuantity:    v.StockQuantity,
		IsAvailable:      v.IsAvailable,
		ProductAvailable: v.ProductAvailable,
	}
}

func SlotToEntity(s Slot) entities.DeliverySlot {
	return entities.DeliverySlot{
		ID:              s.ID,
		Date:            s.Date,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		MaxCapacity:     s.MaxCapacity,
		CurrentBookings: s.CurrentBookings,
		IsActive:        s.IsActive,
	}
}

func AddressToEntity(a Address) entities.Address {
	address := entities.Address{
		ID:       a.ID,
		UserID:   a.UserID,
		Label:    a.Label,
		Street:   a.Street,
		City:     a.City,
		Pincode:  a.Pincode,
		Landmark: optionalString(a.Landmark),
	}
	if a.Latitude.Valid && a.Longitude.Valid {
		address.Location = entities.Some(entities.GeoPoint{
			Latitude:  a.Latitude.Float64,
			Longitude: a.Longitude.Float64,
		})
	}
	return address
}

func CartItemToEntity(i CartItem) entities.CartItem {
	name := entities.Variant{ProductName: i.ProductName, Name: i.VariantName}.DisplayName()
	return entities.CartItem{
		ID:          i.ID,
		CartID:      i.CartID,
		VariantID:   i.VariantID,
		VariantName: name,
		Quantity:    i.Quantity,
		PriceAtAdd:  i.PriceAtAdd,
	}
}

func CartToEntity(c Cart, items []CartItem) entities.Cart {
	cart := entities.Cart{
		ID:        c.ID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		Items:     make([]entities.CartItem, 0, len(items)),
	}
	for _, it := range items {
		cart.Items = append(cart.Items, CartItemToEntity(it))
	}
	return cart
}

func OrderItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:              i.ID,
		OrderID:         i.OrderID,
		VariantID:       i.VariantID,
		VariantName:     i.VariantName,
		Quantity:        i.Quantity,
		PriceAtPurchase: i.PriceAtPurchase,
		Subtotal:        i.Subtotal,
	}
}

func OrderToEntity(o Order, slot Slot, address Address, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:          o.ID,
		Number:      o.OrderNumber,
		UserID:      o.UserID,
		Status:      entities.OrderStatus(o.Status),
		Subtotal:    o.Subtotal,
		DeliveryFee: o.DeliveryFee,
		TotalAmount: o.TotalAmount,
		Gift: entities.GiftOptions{
			CustomMessage:       optionalString(o.CustomMessage),
			IsGift:              o.IsGift,
			SpecialInstructions: optionalString(o.SpecialInstructions),
		},
		Slot:      SlotToEntity(slot),
		Address:   AddressToEntity(address),
		Items:     make([]entities.OrderItem, 0, len(items)),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, it := range items {
		order.Items = append(order.Items, OrderItemToEntity(it))
	}
	return order
}

func PaymentToEntity(p Payment) entities.PaymentIntent {
	return entities.PaymentIntent{
		ID:               p.ID,
		OrderID:          p.OrderID,
		GatewayOrderID:   p.RazorpayOrderID,
		GatewayPaymentID: optionalString(p.RazorpayPaymentID),
		Signature:        optionalString(p.RazorpaySignature),
		Status:           entities.PaymentStatus(p.Status),
		Amount:           p.Amount,
		Currency:         p.Currency,
		FailureReason:    optionalString(p.FailureReason),
		CreatedAt:        p.CreatedAt,
	}
}

func DeliveryToEntity(d Delivery) entities.Delivery {
	delivery := entities.Delivery{
		ID:           d.ID,
		OrderID:      d.OrderID,
		ExternalID:   d.BorzoOrderID.String,
		TrackingURL:  optionalString(d.TrackingURL),
		CourierName:  optionalString(d.CourierName),
		CourierPhone: optionalString(d.CourierPhone),
		Status:       entities.DeliveryStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.EstimatedCost.Valid {
		delivery.EstimatedCost = entities.Some(d.EstimatedCost.Decimal)
	}
	if d.ActualCost.Valid {
		delivery.ActualCost = entities.Some(d.ActualCost.Decimal)
	}
	if d.PickedUpAt.Valid {
		delivery.PickedUpAt = entities.Some(d.PickedUpAt.Time)
	}
	if d.DeliveredAt.Valid {
		delivery.DeliveredAt = entities.Some(d.DeliveredAt.Time)
	}
	return delivery
}

func DeliveryFromEntity(d entities.Delivery) Delivery {
	row := Delivery{
		ID:           d.ID,
		OrderID:      d.OrderID,
		BorzoOrderID: sql.NullString{String: d.ExternalID, Valid: d.ExternalID != ""},
		TrackingURL:  nullString(d.TrackingURL),
		CourierName:  nullString(d.CourierName),
		CourierPhone: nullString(d.CourierPhone),
		Status:       string(d.Status),
	}
	if v, ok := d.EstimatedCost.Get(); ok {
		row.EstimatedCost = decimal.NewNullDecimal(v)
	}
	if v, ok := d.ActualCost.Get(); ok {
		row.ActualCost = decimal.NewNullDecimal(v)
	}
	if v, ok := d.PickedUpAt.Get(); ok {
		row.PickedUpAt = sql.NullTime{Time: v, Valid: true}
	}
	if v, ok := d.DeliveredAt.Get(); ok {
		row.DeliveredAt = sql.NullTime{Time: v, Valid: true}
	}
	return row
}
