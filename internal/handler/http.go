package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/service"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	userIDHeader      = "X-User-ID"
	idempotencyHeader = "Idempotency-Key"
)

type OrderService interface {
	GetUserOrder(ctx context.Context, userID, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, userID string) ([]entities.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (entities.PlacedOrder, error)
}

type CartService interface {
	GetCart(ctx context.Context, userID string) (entities.Cart, error)
	AddItem(ctx context.Context, userID, variantID string, quantity int) (entities.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (entities.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (entities.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type SlotService interface {
	AvailableSlots(ctx context.Context, from, to time.Time) ([]entities.DeliverySlot, error)
	GenerateSlots(ctx context.Context, from, to time.Time, capacity int) (int, error)
	EstimateDelivery(ctx context.Context, point entities.GeoPoint) (entities.DeliveryEstimate, error)
}

type DeliveryService interface {
	Book(ctx context.Context, orderID string) (entities.Delivery, error)
	Track(ctx context.Context, userID, orderID string) (entities.Delivery, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, userID string, in entities.VerifyPaymentInput) (entities.PaymentIntent, error)
}

// IdempotencyStore guards POST /orders against client retries. Optional.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (result string, done bool, err error)
	Complete(ctx context.Context, key, result string) error
	Abort(ctx context.Context, key string) error
}

type Services struct {
	Orders      OrderService
	Placement   OrderPlacer
	Carts       CartService
	Slots       SlotService
	Payments    PaymentVerifier
	Delivery    DeliveryService
	Idempotency IdempotencyStore
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate

	orders    OrderService
	placement OrderPlacer
	carts     CartService
	slots     SlotService
	payments  PaymentVerifier
	delivery  DeliveryService
	idem      IdempotencyStore
}

func NewHTTPHandler(logger *slog.Logger, svc Services) *HTTPHandler {
	return &HTTPHandler{
		logger:    logger.With(slog.String("handler", "http")),
		validate:  validator.New(),
		orders:    svc.Orders,
		placement: svc.Placement,
		carts:     svc.Carts,
		slots:     svc.Slots,
		payments:  svc.Payments,
		delivery:  svc.Delivery,
		idem:      svc.Idempotency,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{item_id}", h.UpdateCartItem)
			r.Delete("/items/{item_id}", h.RemoveCartItem)
		})

		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{order_id}", h.GetOrder)

		r.Post("/payments/verify", h.VerifyPayment)

		r.Get("/delivery/track/{order_id}", h.TrackDelivery)
	})

	r.Patch("/orders/{order_id}/status", h.UpdateOrderStatus)

	r.Get("/delivery/slots", h.AvailableSlots)
	r.Post("/delivery/slots/generate", h.GenerateSlots)
	r.Post("/delivery/book/{order_id}", h.BookDelivery)
	r.Get("/delivery/estimate", h.EstimateDelivery)
}

type userIDKey struct{}

// requireUser takes the buyer id from the X-User-ID header set by the gateway.
func (h *HTTPHandler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if err := h.validate.Var(userID, "required,uuid"); err != nil {
			utils.WriteKindError(w, "UNAUTHORIZED", "missing or invalid "+userIDHeader+" header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey{}).(string)
	return userID
}

// decode reads and validates a JSON body. It writes the error response itself
// and reports whether the handler may continue.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := utils.DecodeBody(r, v); err != nil {
		utils.WriteKindError(w, string(entities.KindValidation), "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		utils.WriteValidationError(w, err)
		return false
	}
	return true
}
