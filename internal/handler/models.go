package handler

import (
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/shopspring/decimal"
)

const dateLayout = time.DateOnly

// Order представляет заказ
type Order struct {
	ID                  string      `json:"id"`
	OrderNumber         string      `json:"order_number"`
	UserID              string      `json:"user_id"`
	Status              string      `json:"status"`
	Subtotal            string      `json:"subtotal"`
	DeliveryFee         string      `json:"delivery_fee"`
	TotalAmount         string      `json:"total_amount"`
	IsGift              bool        `json:"is_gift"`
	CustomMessage       *string     `json:"custom_message,omitempty"`
	SpecialInstructions *string     `json:"special_instructions,omitempty"`
	Slot                Slot        `json:"delivery_slot"`
	Address             Address     `json:"delivery_address"`
	Items               []OrderItem `json:"items"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// OrderItem позиция заказа
type OrderItem struct {
	ID              string `json:"id"`
	VariantID       string `json:"variant_id"`
	VariantName     string `json:"variant_name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
	Subtotal        string `json:"subtotal"`
}

// Slot окно доставки
type Slot struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	MaxCapacity     int    `json:"max_capacity"`
	CurrentBookings int    `json:"current_bookings"`
	Remaining       int    `json:"remaining"`
}

// Address адрес доставки
type Address struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	Pincode   string   `json:"pincode"`
	Landmark  *string  `json:"landmark,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// PaymentIntent данные для оплаты через Razorpay Checkout
type PaymentIntent struct {
	ID             string `json:"id"`
	KeyID          string `json:"razorpay_key_id"`
	GatewayOrderID string `json:"razorpay_order_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
}

// Delivery доставка заказа курьером Borzo
type Delivery struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	BorzoOrderID  string     `json:"borzo_order_id"`
	Status        string     `json:"status"`
	TrackingURL   *string    `json:"tracking_url,omitempty"`
	CourierName   *string    `json:"courier_name,omitempty"`
	CourierPhone  *string    `json:"courier_phone,omitempty"`
	EstimatedCost *string    `json:"estimated_cost,omitempty"`
	ActualCost    *string    `json:"actual_cost,omitempty"`
	PickedUpAt    *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlacedOrder ответ на оформление заказа
type PlacedOrder struct {
	Order   Order         `json:"order"`
	Payment PaymentIntent `json:"payment"`
}

// Cart корзина покупателя
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
	Total string     `json:"total"`
}

// CartItem позиция корзины
type CartItem struct {
	ID          string `json:"id"`
	VariantID   string `json:"variant_id"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity"`
	PriceAtAdd  string `json:"price_at_add"`
	Subtotal    string `json:"subtotal"`
}

// DeliveryEstimate оценка стоимости доставки
type DeliveryEstimate struct {
	Fee             string `json:"fee"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationMinutes int    `json:"duration_minutes"`
	Fallback        bool   `json:"fallback"`
}

// PlaceOrderRequest запрос на оформление заказа
type PlaceOrderRequest struct {
	SlotID              string  `json:"delivery_slot_id" validate:"required,uuid"`
	AddressID           string  `json:"delivery_address_id" validate:"required,uuid"`
	IsGift              bool    `json:"is_gift"`
	CustomMessage       *string `json:"custom_message" validate:"omitempty,max=200"`
	SpecialInstructions *string `json:"special_instructions" validate:"omitempty,max=500"`
}

// UpdateStatusRequest запрос на смену статуса заказа
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED BAKING READY DISPATCHED DELIVERED CANCELLED"`
}

// AddCartItemRequest запрос на добавление товара в корзину
type AddCartItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=10"`
}

// UpdateCartItemRequest запрос на изменение количества
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=10"`
}

// GenerateSlotsRequest запрос на генерацию окон доставки
type GenerateSlotsRequest struct {
	From     string `json:"from" validate:"required,datetime=2006-01-02"`
	To       string `json:"to" validate:"required,datetime=2006-01-02"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// GenerateSlotsResponse результат генерации окон
type GenerateSlotsResponse struct {
	Created int `json:"created"`
}

// VerifyPaymentRequest подтверждение оплаты от Razorpay Checkout
type VerifyPaymentRequest struct {
	OrderID           string `json:"order_id" validate:"required,uuid"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// StatusUpdateMessage сообщение кухни о смене статуса заказа
type StatusUpdateMessage struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Status  string `json:"status" validate:"required,oneof=PENDING CONFIRMED BAKING READY DISPATCHED DELIVERED CANCELLED"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemEntityToJSON(it))
	}

	return Order{
		ID:                  o.ID,
		OrderNumber:         o.Number,
		UserID:              o.UserID,
		Status:              o.Status.String(),
		Subtotal:            money(o.Subtotal),
		DeliveryFee:         money(o.DeliveryFee),
		TotalAmount:         money(o.TotalAmount),
		IsGift:              o.Gift.IsGift,
		CustomMessage:       o.Gift.CustomMessage.Ptr(),
		SpecialInstructions: o.Gift.SpecialInstructions.Ptr(),
		Slot:                SlotEntityToJSON(o.Slot),
		Address:             AddressEntityToJSON(o.Address),
		Items:               items,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func OrderItemEntityToJSON(i entities.OrderItem) OrderItem {
	return OrderItem{
		ID:              i.ID,
		VariantID:       i.VariantID,
		VariantName:     i.VariantName,
		Quantity:        i.Quantity,
		PriceAtPurchase: money(i.PriceAtPurchase),
		Subtotal:        money(i.Subtotal),
	}
}

func SlotEntityToJSON(s entities.DeliverySlot) Slot {
	return Slot{
		ID:              s.ID,
		Date:            s.Date.Format(dateLayout),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		MaxCapacity:     s.MaxCapacity,
		CurrentBookings: s.CurrentBookings,
		Remaining:       s.Remaining(),
	}
}

func AddressEntityToJSON(a entities.Address) Address {
	res := Address{
		ID:       a.ID,
		Label:    a.Label,
		Street:   a.Street,
		City:     a.City,
		Pincode:  a.Pincode,
		Landmark: a.Landmark.Ptr(),
	}
	if p, ok := a.Location.Get(); ok {
		res.Latitude, res.Longitude = &p.Latitude, &p.Longitude
	}
	return res
}

func PaymentEntityToJSON(p entities.PaymentIntent) PaymentIntent {
	return PaymentIntent{
		ID:             p.ID,
		KeyID:          p.GatewayKeyID,
		GatewayOrderID: p.GatewayOrderID,
		Amount:         money(p.Amount),
		Currency:       p.Currency,
		Status:         string(p.Status),
	}
}

func CartEntityToJSON(c entities.Cart) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItem{
			ID:          it.ID,
			VariantID:   it.VariantID,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
			PriceAtAdd:  money(it.PriceAtAdd),
			Subtotal:    money(it.Subtotal()),
		})
	}
	return Cart{ID: c.ID, Items: items, Total: money(c.Total())}
}

func EstimateEntityToJSON(e entities.DeliveryEstimate) DeliveryEstimate {
	return DeliveryEstimate{
		Fee:             money(e.Fee),
		DistanceMeters:  e.DistanceMeters,
		DurationMinutes: e.DurationMinutes,
		Fallback:        e.Fallback,
	}
}

func optionalMoney(o entities.Optional[decimal.Decimal]) *string {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	m := money(v)
	return &m
}

func DeliveryEntityToJSON(d entities.Delivery) Delivery {
	return Delivery{
		ID:            d.ID,
		OrderID:       d.OrderID,
		BorzoOrderID:  d.ExternalID,
		Status:        string(d.Status),
		TrackingURL:   d.TrackingURL.Ptr(),
		CourierName:   d.CourierName.Ptr(),
		CourierPhone:  d.CourierPhone.Ptr(),
		EstimatedCost: optionalMoney(d.EstimatedCost),
		ActualCost:    optionalMoney(d.ActualCost),
		PickedUpAt:    d.PickedUpAt.Ptr(),
		DeliveredAt:   d.DeliveredAt.Ptr(),
		UpdatedAt:     d.UpdatedAt,
	}
}
