// Package gateway turns each payment gateway's webhook payload into a
// canonical status update. One parser per gateway, all producing the same
// domain.GatewayEvent; transport-level concerns (tokens, headers) stay in the
// HTTP handlers.
package gateway

import (
	"fmt"
	"strings"

	"github.com/lojaviva/checkout/internal/domain"
)

// Gateway names used in logs and published events.
const (
	NameCard    = "card"
	NameBank    = "bank"
	NameCharges = "charges"
)

// NoTransitionError marks a well-formed notification that does not drive any
// order transition (unknown vocabulary, creation ping). Handlers acknowledge
// it with success so the gateway stops redelivering.
type NoTransitionError struct {
	Gateway   string
	RawStatus string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("%s webhook: status %q drives no transition", e.Gateway, e.RawStatus)
}

// ValidationError rejects a payload that fails shape validation before any
// side effect happens.
type ValidationError struct {
	Gateway string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s webhook: %s", e.Gateway, e.Reason)
}

// CanonicalStatus maps a gateway's native vocabulary onto the shared order
// lifecycle. The boolean is false for statuses that must be acknowledged but
// leave the order untouched.
func CanonicalStatus(raw string) (domain.OrderStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "RECEIVED", "CONFIRMED", "PAID", "APPROVED":
		return domain.StatusPaid, true
	case "OVERDUE":
		return domain.StatusOverdue, true
	case "CANCELED", "CANCELLED", "DECLINED":
		return domain.StatusCancelled, true
	default:
		return "", false
	}
}
