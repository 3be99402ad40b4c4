package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/utils"
)

var kindStatus = map[entities.Kind]int{
	entities.KindNotFound:          http.StatusNotFound,
	entities.KindValidation:        http.StatusBadRequest,
	entities.KindInsufficientStock: http.StatusConflict,
	entities.KindSlotFull:          http.StatusConflict,
	entities.KindSlotInactive:      http.StatusConflict,
	entities.KindInvalidTransition: http.StatusConflict,
	entities.KindEmptyCart:         http.StatusBadRequest,
	entities.KindOutOfServiceArea:  http.StatusUnprocessableEntity,
	entities.KindGateway:           http.StatusBadGateway,
}

// writeServiceError maps a domain error to its HTTP status. Server side
// failures are logged and never leak their message.
func (h *HTTPHandler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	kind := entities.KindOf(err)
	code, ok := kindStatus[kind]
	if !ok {
		code = http.StatusInternalServerError
	}

	if code >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	}

	switch kind {
	case entities.KindInternal:
		utils.WriteKindError(w, string(kind), "internal server error", code)
	case entities.KindGateway:
		utils.WriteKindError(w, string(kind), "upstream service unavailable", code)
	default:
		utils.WriteKindError(w, string(kind), err.Error(), code)
	}
}
