package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound means the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidReference means the reference does not match the pattern
	// order references are generated with; storage is never consulted.
	ErrInvalidReference = errors.New("invalid order reference")
	// ErrPixNotConfigured means the store has no PIX key to receive with.
	ErrPixNotConfigured = errors.New("pix settings missing")
)

// InvalidAmountError rejects a checkout whose computed total is unusable.
type InvalidAmountError struct {
	TotalCents int64
	Reason     string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid order amount %d: %s", e.TotalCents, e.Reason)
}
