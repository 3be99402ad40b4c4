package handler_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/handler"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/service"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/idempotency"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	buyerID   = "6f1c2a9e-3b1d-4c55-9a57-2f7f0d6c8e11"
	orderID   = "0b8f3c5e-7a2d-4e9f-8c61-5d4a3b2c1e0f"
	slotID    = "a3d5f7b9-1c2e-4f60-8a9b-0c1d2e3f4a5b"
	addressID = "c4e6a8b0-2d3f-4a51-9b7c-8d9e0f1a2b3c"
	variantID = "e1f2a3b4-c5d6-4e7f-8a9b-0c1d2e3f4a5b"
)

type fixture struct {
	orders   *mockOrders
	placer   *mockPlacer
	carts    *mockCarts
	slots    *mockSlots
	payments *mockPayments
	delivery *mockDelivery
	idem     *mockIdempotency
	router   chi.Router
}

func newFixture(withIdempotency bool) *fixture {
	f := &fixture{
		orders:   &mockOrders{},
		placer:   &mockPlacer{},
		carts:    &mockCarts{},
		slots:    &mockSlots{},
		payments: &mockPayments{},
		delivery: &mockDelivery{},
		idem:     &mockIdempotency{},
	}
	svc := handler.Services{
		Orders:    f.orders,
		Placement: f.placer,
		Carts:     f.carts,
		Slots:     f.slots,
		Payments:  f.payments,
		Delivery:  f.delivery,
	}
	if withIdempotency {
		svc.Idempotency = f.idem
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc)
	f.router = chi.NewRouter()
	h.Init(f.router)
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	res := rr.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func request(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("X-User-ID", buyerID)
	return req
}

func placedOrder() entities.PlacedOrder {
	return entities.PlacedOrder{
		Order: entities.Order{
			ID:          orderID,
			Number:      "LF-2026-0001",
			UserID:      buyerID,
			Status:      entities.StatusPending,
			Subtotal:    decimal.RequireFromString("1300"),
			DeliveryFee: decimal.RequireFromString("100"),
			TotalAmount: decimal.RequireFromString("1400"),
			Slot: entities.DeliverySlot{
				ID:          slotID,
				Date:        time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
				StartTime:   "10:00",
				EndTime:     "13:00",
				MaxCapacity: 5,
			},
			Address: entities.Address{ID: addressID, City: "Mumbai"},
			Items: []entities.OrderItem{{
				VariantID:       variantID,
				VariantName:     "Chocolate Truffle (1 kg)",
				Quantity:        2,
				PriceAtPurchase: decimal.RequireFromString("500"),
				Subtotal:        decimal.RequireFromString("1000"),
			}},
		},
		Payment: entities.PaymentIntent{
			ID:             "pay-row-1",
			OrderID:        orderID,
			GatewayKeyID:   "rzp_test_key",
			GatewayOrderID: "order_rzp_1",
			Status:         entities.PaymentCreated,
			Amount:         decimal.RequireFromString("1400"),
			Currency:       entities.CurrencyINR,
		},
	}
}

const placeBody = `{"delivery_slot_id":"` + slotID + `","delivery_address_id":"` + addressID + `","is_gift":true,"custom_message":"Happy birthday!"}`

func TestHTTPHandler_PlaceOrder(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		noUser       bool
		mockBehavior func(placer *mockPlacer)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "success",
			body: placeBody,
			mockBehavior: func(placer *mockPlacer) {
				placer.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(in service.PlaceOrderInput) bool {
					return in.UserID == buyerID && in.SlotID == slotID && in.AddressID == addressID &&
						in.Gift.IsGift && in.Gift.CustomMessage.OrElse("") == "Happy birthday!" &&
						!in.Gift.SpecialInstructions.Set
				})).Return(placedOrder(), nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"order_number":"LF-2026-0001"`,
		},
		{
			name:       "missing user",
			body:       placeBody,
			noUser:     true,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"UNAUTHORIZED"`,
		},
		{
			name:       "missing slot",
			body:       `{"delivery_address_id":"` + addressID + `"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"SlotID":"required"`,
		},
		{
			name:       "unknown field",
			body:       `{"delivery_slot_id":"` + slotID + `","delivery_address_id":"` + addressID + `","coupon":"X"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"invalid request body"`,
		},
		{
			name: "insufficient stock",
			body: placeBody,
			mockBehavior: func(placer *mockPlacer) {
				placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.PlacedOrder{}, &entities.InsufficientStockError{
					VariantID: variantID, Name: "Chocolate Truffle (1 kg)", Requested: 2, Remaining: 1,
				}).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `{"kind":"INSUFFICIENT_STOCK","message":"Insufficient stock for Chocolate Truffle (1 kg). Only 1 items available in stock"}`,
		},
		{
			name: "slot full",
			body: placeBody,
			mockBehavior: func(placer *mockPlacer) {
				placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.PlacedOrder{}, entities.ErrSlotFull).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"SLOT_FULL"`,
		},
		{
			name: "empty cart",
			body: placeBody,
			mockBehavior: func(placer *mockPlacer) {
				placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.PlacedOrder{}, entities.ErrEmptyCart).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"EMPTY_CART"`,
		},
		{
			name: "gateway failure",
			body: placeBody,
			mockBehavior: func(placer *mockPlacer) {
				placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.PlacedOrder{}, &entities.GatewayError{
					Gateway: "razorpay", StatusCode: 500, Err: errors.New("secret detail"),
				}).Once()
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `"upstream service unavailable"`,
		},
		{
			name: "internal error",
			body: placeBody,
			mockBehavior: func(placer *mockPlacer) {
				placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.PlacedOrder{}, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"internal server error"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(false)
			if tc.mockBehavior != nil {
				tc.mockBehavior(f.placer)
			}

			req := request(http.MethodPost, "/orders", tc.body)
			if tc.noUser {
				req.Header.Del("X-User-ID")
			}
			status, body := f.do(t, req)

			assert.Equal(t, tc.wantStatus, status)
			assert.Contains(t, body, tc.wantBody)
			assert.NotContains(t, body, "secret detail")
			f.placer.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_PlaceOrderResponse(t *testing.T) {
	f := newFixture(false)
	f.placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(placedOrder(), nil).Once()

	status, body := f.do(t, request(http.MethodPost, "/orders", placeBody))
	require.Equal(t, http.StatusCreated, status)

	var res handler.PlacedOrder
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, "1300.00", res.Order.Subtotal)
	assert.Equal(t, "100.00", res.Order.DeliveryFee)
	assert.Equal(t, "1400.00", res.Order.TotalAmount)
	assert.Equal(t, "2026-12-24", res.Order.Slot.Date)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "1000.00", res.Order.Items[0].Subtotal)
	assert.Equal(t, "rzp_test_key", res.Payment.KeyID)
	assert.Equal(t, "order_rzp_1", res.Payment.GatewayOrderID)
	assert.Equal(t, "1400.00", res.Payment.Amount)
	assert.Equal(t, "INR", res.Payment.Currency)
}

func placeKey(t *testing.T, idemKey, body string) string {
	t.Helper()
	var req handler.PlaceOrderRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	fingerprint, err := idempotency.Fingerprint(req)
	require.NoError(t, err)
	return idempotency.RequestKey("place-order", buyerID, idemKey, fingerprint)
}

func TestHTTPHandler_PlaceOrderIdempotency(t *testing.T) {
	key := placeKey(t, "key-1", placeBody)

	t.Run("first request stores the response", func(t *testing.T) {
		f := newFixture(true)
		f.idem.On("Begin", mock.Anything, key).Return("", false, nil).Once()
		f.placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(placedOrder(), nil).Once()
		f.idem.On("Complete", mock.Anything, key, mock.MatchedBy(func(result string) bool {
			return strings.Contains(result, `"order_number":"LF-2026-0001"`)
		})).Return(nil).Once()

		req := request(http.MethodPost, "/orders", placeBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, _ := f.do(t, req)

		assert.Equal(t, http.StatusCreated, status)
		f.idem.AssertExpectations(t)
	})

	t.Run("replay returns the stored response", func(t *testing.T) {
		f := newFixture(true)
		f.idem.On("Begin", mock.Anything, key).Return(`{"order":{"order_number":"LF-2026-0001"}}`, true, nil).Once()

		req := request(http.MethodPost, "/orders", placeBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, body := f.do(t, req)

		assert.Equal(t, http.StatusCreated, status)
		assert.Contains(t, body, "LF-2026-0001")
		f.placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	})

	t.Run("concurrent request conflicts", func(t *testing.T) {
		f := newFixture(true)
		f.idem.On("Begin", mock.Anything, key).Return("", false, idempotency.ErrInProgress).Once()

		req := request(http.MethodPost, "/orders", placeBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, _ := f.do(t, req)

		assert.Equal(t, http.StatusConflict, status)
		f.placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	})

	t.Run("failed placement releases the key", func(t *testing.T) {
		f := newFixture(true)
		f.idem.On("Begin", mock.Anything, key).Return("", false, nil).Once()
		f.placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.PlacedOrder{}, entities.ErrSlotFull).Once()
		f.idem.On("Abort", mock.Anything, key).Return(nil).Once()

		req := request(http.MethodPost, "/orders", placeBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, _ := f.do(t, req)

		assert.Equal(t, http.StatusConflict, status)
		f.idem.AssertExpectations(t)
	})

	t.Run("store unavailable fails open", func(t *testing.T) {
		f := newFixture(true)
		f.idem.On("Begin", mock.Anything, key).Return("", false, errors.New("redis down")).Once()
		f.placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(placedOrder(), nil).Once()

		req := request(http.MethodPost, "/orders", placeBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, _ := f.do(t, req)

		assert.Equal(t, http.StatusCreated, status)
		f.idem.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("same key with another body is a new request", func(t *testing.T) {
		otherBody := `{"delivery_slot_id":"` + slotID + `","delivery_address_id":"` + addressID + `","is_gift":false}`
		otherKey := placeKey(t, "key-1", otherBody)
		require.NotEqual(t, key, otherKey)

		f := newFixture(true)
		f.idem.On("Begin", mock.Anything, key).Return(`{"order":{"order_number":"LF-2026-0001"}}`, true, nil).Once()
		f.idem.On("Begin", mock.Anything, otherKey).Return("", false, nil).Once()
		f.placer.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(in service.PlaceOrderInput) bool {
			return !in.Gift.IsGift
		})).Return(placedOrder(), nil).Once()
		f.idem.On("Complete", mock.Anything, otherKey, mock.Anything).Return(nil).Once()

		req := request(http.MethodPost, "/orders", placeBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, _ := f.do(t, req)
		assert.Equal(t, http.StatusCreated, status)

		req = request(http.MethodPost, "/orders", otherBody)
		req.Header.Set("Idempotency-Key", "key-1")
		status, _ = f.do(t, req)
		assert.Equal(t, http.StatusCreated, status)

		f.idem.AssertExpectations(t)
		f.placer.AssertNumberOfCalls(t, "PlaceOrder", 1)
	})
}

func TestHTTPHandler_GetOrder(t *testing.T) {
	testCases := []struct {
		name         string
		orderID      string
		mockBehavior func(orders *mockOrders)
		wantStatus   int
		wantBody     string
	}{
		{
			name:    "success",
			orderID: orderID,
			mockBehavior: func(orders *mockOrders) {
				orders.On("GetUserOrder", mock.Anything, buyerID, orderID).Return(placedOrder().Order, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"id":"` + orderID + `"`,
		},
		{
			name:    "not found",
			orderID: orderID,
			mockBehavior: func(orders *mockOrders) {
				orders.On("GetUserOrder", mock.Anything, buyerID, orderID).Return(entities.Order{}, entities.NotFound("order", orderID)).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"kind":"NOT_FOUND","message":"order not found"}`,
		},
		{
			name:       "invalid id",
			orderID:    "123",
			wantStatus: http.StatusBadRequest,
			wantBody:   `"VALIDATION_FAILURE"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(false)
			if tc.mockBehavior != nil {
				tc.mockBehavior(f.orders)
			}

			status, body := f.do(t, request(http.MethodGet, "/orders/"+tc.orderID, ""))

			assert.Equal(t, tc.wantStatus, status)
			assert.Contains(t, body, tc.wantBody)
			f.orders.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	f := newFixture(false)
	f.orders.On("ListOrders", mock.Anything, buyerID).Return([]entities.Order{}, nil).Once()

	status, body := f.do(t, request(http.MethodGet, "/orders", ""))

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)
}

func TestHTTPHandler_UpdateOrderStatus(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		mockBehavior func(orders *mockOrders)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "success",
			body: `{"status":"CONFIRMED"}`,
			mockBehavior: func(orders *mockOrders) {
				order := placedOrder().Order
				order.Status = entities.StatusConfirmed
				orders.On("UpdateStatus", mock.Anything, orderID, entities.StatusConfirmed).Return(order, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"CONFIRMED"`,
		},
		{
			name: "invalid transition",
			body: `{"status":"DELIVERED"}`,
			mockBehavior: func(orders *mockOrders) {
				orders.On("UpdateStatus", mock.Anything, orderID, entities.StatusDelivered).Return(entities.Order{}, &entities.TransitionError{
					From: entities.StatusPending, To: entities.StatusDelivered,
				}).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `{"kind":"INVALID_TRANSITION","message":"Cannot transition from PENDING to DELIVERED"}`,
		},
		{
			name:       "unknown status",
			body:       `{"status":"SHIPPED"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"Status":"oneof"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(false)
			if tc.mockBehavior != nil {
				tc.mockBehavior(f.orders)
			}

			status, body := f.do(t, request(http.MethodPatch, "/orders/"+orderID+"/status", tc.body))

			assert.Equal(t, tc.wantStatus, status)
			assert.Contains(t, body, tc.wantBody)
			f.orders.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_Cart(t *testing.T) {
	cart := entities.Cart{
		ID: "cart-1",
		Items: []entities.CartItem{{
			ID:          "item-1",
			VariantID:   variantID,
			VariantName: "Chocolate Truffle (1 kg)",
			Quantity:    3,
			PriceAtAdd:  decimal.RequireFromString("500"),
		}},
	}

	t.Run("add item", func(t *testing.T) {
		f := newFixture(false)
		f.carts.On("AddItem", mock.Anything, buyerID, variantID, 3).Return(cart, nil).Once()

		status, body := f.do(t, request(http.MethodPost, "/cart/items", `{"variant_id":"`+variantID+`","quantity":3}`))

		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"total":"1500.00"`)
		assert.Contains(t, body, `"subtotal":"1500.00"`)
	})

	t.Run("quantity above limit", func(t *testing.T) {
		f := newFixture(false)

		status, body := f.do(t, request(http.MethodPost, "/cart/items", `{"variant_id":"`+variantID+`","quantity":11}`))

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, `"Quantity":"max"`)
	})

	t.Run("low stock", func(t *testing.T) {
		f := newFixture(false)
		f.carts.On("AddItem", mock.Anything, buyerID, variantID, 5).
			Return(entities.Cart{}, &entities.InsufficientStockError{VariantID: variantID, Requested: 5, Remaining: 3}).Once()

		status, body := f.do(t, request(http.MethodPost, "/cart/items", `{"variant_id":"`+variantID+`","quantity":5}`))

		assert.Equal(t, http.StatusConflict, status)
		assert.Contains(t, body, `"Only 3 items available in stock"`)
	})

	t.Run("clear", func(t *testing.T) {
		f := newFixture(false)
		f.carts.On("ClearCart", mock.Anything, buyerID).Return(nil).Once()

		status, _ := f.do(t, request(http.MethodDelete, "/cart", ""))

		assert.Equal(t, http.StatusNoContent, status)
		f.carts.AssertExpectations(t)
	})
}

func TestHTTPHandler_Delivery(t *testing.T) {
	t.Run("estimate", func(t *testing.T) {
		f := newFixture(false)
		f.slots.On("EstimateDelivery", mock.Anything, entities.GeoPoint{Latitude: 19.0596, Longitude: 72.8295}).
			Return(entities.DeliveryEstimate{Fee: decimal.RequireFromString("220"), DistanceMeters: 5400, DurationMinutes: 45}, nil).Once()

		status, body := f.do(t, request(http.MethodGet, "/delivery/estimate?latitude=19.0596&longitude=72.8295", ""))

		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"fee":"220.00","distance_meters":5400,"duration_minutes":45,"fallback":false}`, body)
	})

	t.Run("outside service area", func(t *testing.T) {
		f := newFixture(false)
		f.slots.On("EstimateDelivery", mock.Anything, mock.Anything).Return(entities.DeliveryEstimate{}, entities.ErrOutOfServiceArea).Once()

		status, body := f.do(t, request(http.MethodGet, "/delivery/estimate?latitude=18.5204&longitude=73.8567", ""))

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body, `"OUT_OF_SERVICE_AREA"`)
	})

	t.Run("invalid latitude", func(t *testing.T) {
		f := newFixture(false)

		status, _ := f.do(t, request(http.MethodGet, "/delivery/estimate?latitude=123&longitude=72.8", ""))

		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("slots in range", func(t *testing.T) {
		f := newFixture(false)
		from := time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 12, 27, 0, 0, 0, 0, time.UTC)
		f.slots.On("AvailableSlots", mock.Anything, from, to).Return([]entities.DeliverySlot{{
			ID: slotID, Date: from, StartTime: "10:00", EndTime: "13:00", MaxCapacity: 5, CurrentBookings: 2,
		}}, nil).Once()

		status, body := f.do(t, request(http.MethodGet, "/delivery/slots?from=2026-12-20&to=2026-12-27", ""))

		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"remaining":3`)
		assert.Contains(t, body, `"date":"2026-12-20"`)
	})

	t.Run("malformed date", func(t *testing.T) {
		f := newFixture(false)

		status, _ := f.do(t, request(http.MethodGet, "/delivery/slots?from=20-12-2026", ""))

		assert.Equal(t, http.StatusBadRequest, status)
		f.slots.AssertNotCalled(t, "AvailableSlots", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("generate", func(t *testing.T) {
		f := newFixture(false)
		from := time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC)
		f.slots.On("GenerateSlots", mock.Anything, from, to, 0).Return(9, nil).Once()

		status, body := f.do(t, request(http.MethodPost, "/delivery/slots/generate", `{"from":"2026-12-20","to":"2026-12-22"}`))

		assert.Equal(t, http.StatusCreated, status)
		assert.JSONEq(t, `{"created":9}`, body)
	})
}

func TestHTTPHandler_CourierDelivery(t *testing.T) {
	booked := entities.Delivery{
		ID:            "dlv-1",
		OrderID:       orderID,
		ExternalID:    "880112",
		Status:        entities.DeliverySearching,
		TrackingURL:   entities.Some("https://borzo.in/track/880112"),
		EstimatedCost: entities.Some(decimal.RequireFromString("214.5")),
		UpdatedAt:     time.Date(2026, 12, 24, 9, 30, 0, 0, time.UTC),
	}

	t.Run("book", func(t *testing.T) {
		f := newFixture(false)
		f.delivery.On("Book", mock.Anything, orderID).Return(booked, nil).Once()

		status, body := f.do(t, request(http.MethodPost, "/delivery/book/"+orderID, ""))

		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"borzo_order_id":"880112"`)
		assert.Contains(t, body, `"status":"SEARCHING"`)
		assert.Contains(t, body, `"estimated_cost":"214.50"`)
		assert.NotContains(t, body, `"courier_name"`)
	})

	t.Run("book before baking", func(t *testing.T) {
		f := newFixture(false)
		f.delivery.On("Book", mock.Anything, orderID).
			Return(entities.Delivery{}, entities.Invalid("status", "order in status PENDING cannot be handed to a courier")).Once()

		status, body := f.do(t, request(http.MethodPost, "/delivery/book/"+orderID, ""))

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, "cannot be handed to a courier")
	})

	t.Run("book with partner down", func(t *testing.T) {
		f := newFixture(false)
		f.delivery.On("Book", mock.Anything, orderID).
			Return(entities.Delivery{}, &entities.GatewayError{Gateway: "borzo", Err: errors.New("connection refused")}).Once()

		status, _ := f.do(t, request(http.MethodPost, "/delivery/book/"+orderID, ""))

		assert.Equal(t, http.StatusBadGateway, status)
	})

	t.Run("book malformed id", func(t *testing.T) {
		f := newFixture(false)

		status, _ := f.do(t, request(http.MethodPost, "/delivery/book/not-a-uuid", ""))

		assert.Equal(t, http.StatusBadRequest, status)
		f.delivery.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
	})

	t.Run("track", func(t *testing.T) {
		f := newFixture(false)
		picked := booked
		picked.Status = entities.DeliveryPickedUp
		picked.CourierName = entities.Some("Ravi")
		picked.PickedUpAt = entities.Some(time.Date(2026, 12, 24, 10, 5, 0, 0, time.UTC))
		f.delivery.On("Track", mock.Anything, buyerID, orderID).Return(picked, nil).Once()

		status, body := f.do(t, request(http.MethodGet, "/delivery/track/"+orderID, ""))

		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"status":"PICKED_UP"`)
		assert.Contains(t, body, `"courier_name":"Ravi"`)
		assert.Contains(t, body, `"picked_up_at":"2026-12-24T10:05:00Z"`)
	})

	t.Run("track without courier", func(t *testing.T) {
		f := newFixture(false)
		f.delivery.On("Track", mock.Anything, buyerID, orderID).Return(entities.Delivery{}, entities.NotFound("delivery", orderID)).Once()

		status, _ := f.do(t, request(http.MethodGet, "/delivery/track/"+orderID, ""))

		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("track requires buyer", func(t *testing.T) {
		f := newFixture(false)
		req := httptest.NewRequest(http.MethodGet, "/delivery/track/"+orderID, nil)

		status, _ := f.do(t, req)

		assert.Equal(t, http.StatusUnauthorized, status)
		f.delivery.AssertNotCalled(t, "Track", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHTTPHandler_VerifyPayment(t *testing.T) {
	body := `{"order_id":"` + orderID + `","razorpay_order_id":"order_rzp_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`
	in := entities.VerifyPaymentInput{
		OrderID:          orderID,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	}

	t.Run("captured", func(t *testing.T) {
		f := newFixture(false)
		payment := placedOrder().Payment
		payment.Status = entities.PaymentCaptured
		f.payments.On("VerifyPayment", mock.Anything, buyerID, in).Return(payment, nil).Once()

		status, res := f.do(t, request(http.MethodPost, "/payments/verify", body))

		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, res, `"status":"CAPTURED"`)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newFixture(false)
		f.payments.On("VerifyPayment", mock.Anything, buyerID, in).
			Return(entities.PaymentIntent{}, entities.Invalid("signature", "payment signature verification failed")).Once()

		status, res := f.do(t, request(http.MethodPost, "/payments/verify", body))

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, res, `"payment signature verification failed"`)
	})
}
