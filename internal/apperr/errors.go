package apperr

import (
	"errors"
	"fmt"
)

// Business failures the HTTP layer maps onto client-visible codes.
var (
	ErrValidation           = errors.New("validation")            // 400
	ErrNotFound             = errors.New("not found")             // 404
	ErrForbidden            = errors.New("forbidden")             // 403
	ErrIllegalTransition    = errors.New("illegal transition")    // 400
	ErrEmptyCart            = errors.New("cart is empty")         // 400
	ErrInsufficientStock    = errors.New("insufficient stock")    // 400
	ErrOrderNotReady        = errors.New("order not ready")       // 400
	ErrOrderAlreadyAssigned = errors.New("order already assigned") // 400
	ErrOrderNotDelivered    = errors.New("order not delivered")   // 400
	ErrAlreadyPaid          = errors.New("order already paid")    // 400
)

// InsufficientStockError names the offending item and the shortfall so the
// caller can report exactly what could not be reserved.
type InsufficientStockError struct {
	ItemID    uint
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
