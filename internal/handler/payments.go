package handler

import (
	"net/http"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"
)

// VerifyPayment подтверждает оплату по подписи Razorpay Checkout.
// @Summary      Подтвердить оплату
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                true  "ID покупателя"
// @Param        request    body    VerifyPaymentRequest  true  "Данные Razorpay Checkout"
// @Success      200  {object}  PaymentIntent
// @Failure      400  {object}  utils.ErrorResponse "Неверная подпись"
// @Failure      404  {object}  utils.ErrorResponse "Заказ или платёж не найден"
// @Router       /payments/verify [post]
func (h *HTTPHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.payments.VerifyPayment(ctx, userFrom(ctx), entities.VerifyPaymentInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "failed to verify payment", err)
		return
	}
	utils.WriteJSON(w, PaymentEntityToJSON(payment), http.StatusOK)
}
