package service_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockEstimator struct {
	mock.Mock
}

func (m *mockEstimator) Estimate(ctx context.Context, to entities.GeoPoint) (entities.DeliveryEstimate, error) {
	args := m.Called(ctx, to)
	return args.Get(0).(entities.DeliveryEstimate), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) KeyID() string {
	return "rzp_test_key"
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (entities.GatewayOrder, error) {
	args := m.Called(ctx, amount, currency, receipt)
	return args.Get(0).(entities.GatewayOrder), args.Error(1)
}

func (m *mockGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	args := m.Called(gatewayOrderID, paymentID, signature)
	return args.Bool(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feeEstimate(fee string) entities.DeliveryEstimate {
	return entities.DeliveryEstimate{Fee: decimal.RequireFromString(fee), DistanceMeters: 4200, DurationMinutes: 35}
}

func gatewayOrder(id, amount string) entities.GatewayOrder {
	return entities.GatewayOrder{ID: id, AmountDue: decimal.RequireFromString(amount), Currency: entities.CurrencyINR}
}

type mockCourier struct {
	mock.Mock
}

func (m *mockCourier) CreateOrder(ctx context.Context, in entities.DispatchRequest) (entities.Dispatch, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(entities.Dispatch), args.Error(1)
}

func (m *mockCourier) Track(ctx context.Context, externalID string) (entities.Tracking, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(entities.Tracking), args.Error(1)
}
