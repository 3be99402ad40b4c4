package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// AvailableSlots возвращает свободные окна доставки.
// @Summary      Свободные окна доставки
// @Tags         delivery
// @Produce      json
// @Param        from  query  string  false  "Начало периода (YYYY-MM-DD)"
// @Param        to    query  string  false  "Конец периода (YYYY-MM-DD)"
// @Success      200  {array}   Slot
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Router       /delivery/slots [get]
func (h *HTTPHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	from, err := h.parseDate(query.Get("from"))
	if err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	to, err := h.parseDate(query.Get("to"))
	if err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	slots, err := h.slots.AvailableSlots(ctx, from, to)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list slots", err)
		return
	}

	res := make([]Slot, 0, len(slots))
	for _, s := range slots {
		res = append(res, SlotEntityToJSON(s))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}

// GenerateSlots создаёт стандартные окна доставки на период.
// @Summary      Сгенерировать окна доставки
// @Tags         delivery
// @Accept       json
// @Produce      json
// @Param        request  body  GenerateSlotsRequest  true  "Период и вместимость"
// @Success      201  {object}  GenerateSlotsResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Router       /delivery/slots/generate [post]
func (h *HTTPHandler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateSlotsRequest
	if !h.decode(w, r, &req) {
		return
	}
	// формат уже проверен валидатором
	from, _ := time.Parse(dateLayout, req.From)
	to, _ := time.Parse(dateLayout, req.To)

	created, err := h.slots.GenerateSlots(ctx, from, to, req.Capacity)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to generate slots", err)
		return
	}
	utils.WriteJSON(w, GenerateSlotsResponse{Created: created}, http.StatusCreated)
}

// EstimateDelivery оценивает стоимость доставки до точки.
// @Summary      Оценка доставки
// @Tags         delivery
// @Produce      json
// @Param        latitude   query  number  true  "Широта"
// @Param        longitude  query  number  true  "Долгота"
// @Success      200  {object}  DeliveryEstimate
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      422  {object}  utils.ErrorResponse "Адрес вне зоны доставки"
// @Router       /delivery/estimate [get]
func (h *HTTPHandler) EstimateDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lat, lon := r.URL.Query().Get("latitude"), r.URL.Query().Get("longitude")

	if err := h.validate.Var(lat, "required,latitude"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	if err := h.validate.Var(lon, "required,longitude"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	point := entities.GeoPoint{}
	point.Latitude, _ = strconv.ParseFloat(lat, 64)
	point.Longitude, _ = strconv.ParseFloat(lon, 64)

	estimate, err := h.slots.EstimateDelivery(ctx, point)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to estimate delivery", err)
		return
	}
	utils.WriteJSON(w, EstimateEntityToJSON(estimate), http.StatusOK)
}

// BookDelivery вызывает курьера Borzo для заказа.
// @Summary      Заказать курьера
// @Description  Создаёт заказ в Borzo от кухни до адреса покупателя. Повторный вызов возвращает уже созданную доставку
// @Tags         delivery
// @Produce      json
// @Param        order_id  path  string  true  "ID заказа"
// @Success      200  {object}  Delivery
// @Failure      400  {object}  utils.ValidationErrorResponse "Заказ ещё не готов к доставке"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      502  {object}  utils.ErrorResponse "Ошибка Borzo"
// @Router       /delivery/book/{order_id} [post]
func (h *HTTPHandler) BookDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	delivery, err := h.delivery.Book(ctx, orderID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to book delivery", err)
		return
	}
	utils.WriteJSON(w, DeliveryEntityToJSON(delivery), http.StatusOK)
}

// TrackDelivery возвращает текущее состояние доставки заказа.
// @Summary      Отследить доставку
// @Tags         delivery
// @Produce      json
// @Param        X-User-ID  header  string  true  "ID покупателя"
// @Param        order_id   path    string  true  "ID заказа"
// @Success      200  {object}  Delivery
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      404  {object}  utils.ErrorResponse "Доставка не найдена"
// @Failure      502  {object}  utils.ErrorResponse "Ошибка Borzo"
// @Router       /delivery/track/{order_id} [get]
func (h *HTTPHandler) TrackDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	delivery, err := h.delivery.Track(ctx, userFrom(ctx), orderID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to track delivery", err)
		return
	}
	utils.WriteJSON(w, DeliveryEntityToJSON(delivery), http.StatusOK)
}

// parseDate accepts an empty value as "not set".
func (h *HTTPHandler) parseDate(value string) (time.Time, error) {
	if err := h.validate.Var(value, "omitempty,datetime=2006-01-02"); err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}
