package handler

import (
	"net/http"

	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// GetCart возвращает корзину покупателя.
// @Summary      Получить корзину
// @Tags         cart
// @Produce      json
// @Param        X-User-ID  header  string  true  "ID покупателя"
// @Success      200  {object}  Cart
// @Router       /cart [get]
func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := h.carts.GetCart(ctx, userFrom(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get cart", err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

// AddCartItem добавляет товар в корзину.
// @Summary      Добавить товар
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string              true  "ID покупателя"
// @Param        request    body    AddCartItemRequest  true  "Вариант и количество"
// @Success      200  {object}  Cart
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      409  {object}  utils.ErrorResponse "Недостаточно товара"
// @Router       /cart/items [post]
func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddCartItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.carts.AddItem(ctx, userFrom(ctx), req.VariantID, req.Quantity)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to add cart item", err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

// UpdateCartItem меняет количество позиции.
// @Summary      Изменить количество
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                 true  "ID покупателя"
// @Param        item_id    path    string                 true  "ID позиции"
// @Param        request    body    UpdateCartItemRequest  true  "Количество"
// @Success      200  {object}  Cart
// @Failure      404  {object}  utils.ErrorResponse "Позиция не найдена"
// @Router       /cart/items/{item_id} [patch]
func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "item_id")

	if err := h.validate.Var(itemID, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	var req UpdateCartItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateItem(ctx, userFrom(ctx), itemID, req.Quantity)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update cart item", err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

// RemoveCartItem удаляет позицию из корзины.
// @Summary      Удалить позицию
// @Tags         cart
// @Produce      json
// @Param        X-User-ID  header  string  true  "ID покупателя"
// @Param        item_id    path    string  true  "ID позиции"
// @Success      200  {object}  Cart
// @Failure      404  {object}  utils.ErrorResponse "Позиция не найдена"
// @Router       /cart/items/{item_id} [delete]
func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "item_id")

	if err := h.validate.Var(itemID, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	cart, err := h.carts.RemoveItem(ctx, userFrom(ctx), itemID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to remove cart item", err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

// ClearCart очищает корзину.
// @Summary      Очистить корзину
// @Tags         cart
// @Param        X-User-ID  header  string  true  "ID покупателя"
// @Success      204
// @Router       /cart [delete]
func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.carts.ClearCart(ctx, userFrom(ctx)); err != nil {
		h.writeServiceError(ctx, w, "failed to clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
