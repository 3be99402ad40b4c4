package entities

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failure")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrSlotFull             = errors.New("delivery slot is fully booked")
	ErrSlotInactive         = errors.New("delivery slot is not active")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrGateway              = errors.New("gateway error")
	ErrOutOfServiceArea     = errors.New("delivery address outside service area")
	ErrDuplicateOrderNumber = errors.New("order number already taken")
	ErrNoTransaction        = errors.New("operation requires a transaction")
)

type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindValidation        Kind = "VALIDATION_FAILURE"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindSlotFull          Kind = "SLOT_FULL"
	KindSlotInactive      Kind = "SLOT_INACTIVE"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindEmptyCart         Kind = "EMPTY_CART"
	KindGateway           Kind = "GATEWAY_ERROR"
	KindOutOfServiceArea  Kind = "OUT_OF_SERVICE_AREA"
	KindInternal          Kind = "INTERNAL"
)

// KindOf returns the machine-readable kind of a domain error.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrSlotFull):
		return KindSlotFull
	case errors.Is(err, ErrSlotInactive):
		return KindSlotInactive
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrEmptyCart):
		return KindEmptyCart
	case errors.Is(err, ErrOutOfServiceArea):
		return KindOutOfServiceArea
	case errors.Is(err, ErrGateway):
		return KindGateway
	default:
		return KindInternal
	}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type ValidationError struct {
	Field  string
	Reason string
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type InsufficientStockError struct {
	VariantID string
	Name      string
	Requested int
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("Only %d items available in stock", e.Remaining)
	}
	return fmt.Sprintf("Insufficient stock for %s. Only %d items available in stock", e.Name, e.Remaining)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// GatewayError wraps a failure of an upstream payment or delivery provider.
// StatusCode is zero when the request never got a response.
type GatewayError struct {
	Gateway    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s gateway error: %v", e.Gateway, e.Err)
	}
	return fmt.Sprintf("%s gateway error (status %d): %v", e.Gateway, e.StatusCode, e.Err)
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
