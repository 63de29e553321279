package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the billing engine. These are all local validation
// failures; the engine performs no I/O of its own, so nothing here is
// retryable. The HTTP layer maps them to transport responses.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCardConfig = errors.New("invalid card configuration")
	ErrCardBlocked       = errors.New("card is blocked")
	ErrCardInactive      = errors.New("card is inactive")
	ErrInvalidPayment    = errors.New("invalid payment amount")
	ErrOverpayment       = errors.New("payment exceeds remaining invoice balance")

	// ErrInsufficientCredit is the sentinel for errors.Is checks; the
	// concrete error carries the available amount.
	ErrInsufficientCredit = errors.New("insufficient credit")
)

// InsufficientCreditError reports a rejected purchase together with the
// numeric available amount, so the caller can react (retry with a smaller
// amount, surface the headroom to the user).
type InsufficientCreditError struct {
	Available Money
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit: available %s", e.Available)
}

// Is makes errors.Is(err, ErrInsufficientCredit) work on the typed error.
func (e *InsufficientCreditError) Is(target error) bool {
	return target == ErrInsufficientCredit
}
