package handler_test

import (
	"context"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockOrders struct{ mock.Mock }

func (m *mockOrders) GetUserOrder(ctx context.Context, userID, orderID string) (entities.Order, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrders) ListOrders(ctx context.Context, userID string) ([]entities.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]entities.Order), args.Error(1)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error) {
	args := m.Called(ctx, orderID, status)
	return args.Get(0).(entities.Order), args.Error(1)
}

type mockPlacer struct{ mock.Mock }

func (m *mockPlacer) PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (entities.PlacedOrder, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(entities.PlacedOrder), args.Error(1)
}

type mockCarts struct{ mock.Mock }

func (m *mockCarts) GetCart(ctx context.Context, userID string) (entities.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entities.Cart), args.Error(1)
}

func (m *mockCarts) AddItem(ctx context.Context, userID, variantID string, quantity int) (entities.Cart, error) {
	args := m.Called(ctx, userID, variantID, quantity)
	return args.Get(0).(entities.Cart), args.Error(1)
}

func (m *mockCarts) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (entities.Cart, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	return args.Get(0).(entities.Cart), args.Error(1)
}

func (m *mockCarts) RemoveItem(ctx context.Context, userID, itemID string) (entities.Cart, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(entities.Cart), args.Error(1)
}

func (m *mockCarts) ClearCart(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSlots struct{ mock.Mock }

func (m *mockSlots) AvailableSlots(ctx context.Context, from, to time.Time) ([]entities.DeliverySlot, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]entities.DeliverySlot), args.Error(1)
}

func (m *mockSlots) GenerateSlots(ctx context.Context, from, to time.Time, capacity int) (int, error) {
	args := m.Called(ctx, from, to, capacity)
	return args.Int(0), args.Error(1)
}

func (m *mockSlots) EstimateDelivery(ctx context.Context, point entities.GeoPoint) (entities.DeliveryEstimate, error) {
	args := m.Called(ctx, point)
	return args.Get(0).(entities.DeliveryEstimate), args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) VerifyPayment(ctx context.Context, userID string, in entities.VerifyPaymentInput) (entities.PaymentIntent, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(entities.PaymentIntent), args.Error(1)
}

type mockIdempotency struct{ mock.Mock }

func (m *mockIdempotency) Begin(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockIdempotency) Complete(ctx context.Context, key, result string) error {
	return m.Called(ctx, key, result).Error(0)
}

func (m *mockIdempotency) Abort(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockDelivery struct{ mock.Mock }

func (m *mockDelivery) Book(ctx context.Context, orderID string) (entities.Delivery, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(entities.Delivery), args.Error(1)
}

func (m *mockDelivery) Track(ctx context.Context, userID, orderID string) (entities.Delivery, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(entities.Delivery), args.Error(1)
}
