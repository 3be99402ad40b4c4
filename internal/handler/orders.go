package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/service"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/idempotency"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

const placeOrderScope = "place-order"

// PlaceOrder оформляет заказ из корзины покупателя.
// @Summary      Оформить заказ
// @Description  Бронирует окно доставки и остатки, создаёт заказ и платёж Razorpay, очищает корзину
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-User-ID        header    string             true   "ID покупателя"
// @Param        Idempotency-Key  header    string             false  "Ключ идемпотентности"
// @Param        request          body      PlaceOrderRequest  true   "Параметры заказа"
// @Success      201  {object}  PlacedOrder
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      404  {object}  utils.ErrorResponse "Окно или адрес не найдены"
// @Failure      409  {object}  utils.ErrorResponse "Нет остатков или окно заполнено"
// @Failure      502  {object}  utils.ErrorResponse "Ошибка платёжного шлюза"
// @Router       /orders [post]
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)

	var req PlaceOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	key, replayed := h.claimIdempotencyKey(ctx, w, r, userID, req)
	if replayed {
		return
	}

	placed, err := h.placement.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID:    userID,
		SlotID:    req.SlotID,
		AddressID: req.AddressID,
		Gift: entities.GiftOptions{
			IsGift:              req.IsGift,
			CustomMessage:       entities.FromPtr(req.CustomMessage),
			SpecialInstructions: entities.FromPtr(req.SpecialInstructions),
		},
	})
	if err != nil {
		h.releaseIdempotencyKey(ctx, key)
		h.writeServiceError(ctx, w, "failed to place order", err)
		return
	}

	res := PlacedOrder{
		Order:   OrderEntityToJSON(placed.Order),
		Payment: PaymentEntityToJSON(placed.Payment),
	}
	h.completeIdempotencyKey(ctx, key, res)
	utils.WriteJSON(w, res, http.StatusCreated)
}

// claimIdempotencyKey returns the store key to complete later, or reports
// that the response was already written (replay or conflict). The key covers
// the decoded request, so a reused header with another body places a new
// order. Store errors fail open.
func (h *HTTPHandler) claimIdempotencyKey(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string, req PlaceOrderRequest) (string, bool) {
	header := r.Header.Get(idempotencyHeader)
	if header == "" || h.idem == nil {
		return "", false
	}
	fingerprint, err := idempotency.Fingerprint(req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to fingerprint request", slog.Any("error", err))
		return "", false
	}
	key := idempotency.RequestKey(placeOrderScope, userID, header, fingerprint)

	result, done, err := h.idem.Begin(ctx, key)
	switch {
	case errors.Is(err, idempotency.ErrInProgress):
		utils.WriteKindError(w, "CONFLICT", err.Error(), http.StatusConflict)
		return "", true
	case err != nil:
		h.logger.WarnContext(ctx, "idempotency store unavailable", slog.Any("error", err))
		return "", false
	case done:
		idempotentReplays.Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(result))
		return "", true
	}
	return key, false
}

func (h *HTTPHandler) completeIdempotencyKey(ctx context.Context, key string, res PlacedOrder) {
	if key == "" {
		return
	}
	data, err := json.Marshal(res)
	if err == nil {
		err = h.idem.Complete(ctx, key, string(data))
	}
	if err != nil {
		h.logger.WarnContext(ctx, "failed to store idempotent response", slog.Any("error", err))
	}
}

func (h *HTTPHandler) releaseIdempotencyKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.idem.Abort(context.WithoutCancel(ctx), key); err != nil {
		h.logger.WarnContext(ctx, "failed to release idempotency key", slog.Any("error", err))
	}
}

// ListOrders возвращает заказы покупателя.
// @Summary      Список заказов
// @Tags         orders
// @Produce      json
// @Param        X-User-ID  header  string  true  "ID покупателя"
// @Success      200  {array}   Order
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.orders.ListOrders(ctx, userFrom(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list orders", err)
		return
	}

	res := make([]Order, 0, len(orders))
	for _, o := range orders {
		res = append(res, OrderEntityToJSON(o))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}

// GetOrder возвращает заказ по ID.
// @Summary      Получить заказ
// @Tags         orders
// @Produce      json
// @Param        X-User-ID  header  string  true  "ID покупателя"
// @Param        order_id   path    string  true  "ID заказа"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.GetUserOrder(ctx, userFrom(ctx), orderID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get order", err)
		return
	}
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateOrderStatus переводит заказ в новый статус.
// @Summary      Сменить статус заказа
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id  path  string               true  "ID заказа"
// @Param        request   body  UpdateStatusRequest  true  "Новый статус"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      409  {object}  utils.ErrorResponse "Недопустимый переход"
// @Router       /orders/{order_id}/status [patch]
func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, entities.OrderStatus(req.Status))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update order status", err)
		return
	}
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}
