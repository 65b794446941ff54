package domain

import (
	"context"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusPendingPix OrderStatus = "PENDING_PIX"
	StatusPaid       OrderStatus = "PAID"
	StatusOverdue    OrderStatus = "OVERDUE"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// Terminal reports whether s admits no further automatic transition.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Order is the record every payment gateway converges on. OrderReference is
// the sole correlation key between the storefront and the gateways.
type Order struct {
	ID               string      `json:"id"`
	OrderReference   string      `json:"order_reference"`
	Status           OrderStatus `json:"status"`
	TotalAmountCents int64       `json:"total_amount_cents"`
	PaidAmountCents  *int64      `json:"paid_amount_cents,omitempty"`
	PaymentMethod    string      `json:"payment_method,omitempty"`
	Installments     *int        `json:"installments,omitempty"`
	GatewayTxnID     string      `json:"gateway_transaction_id,omitempty"`
	ReceiptURL       string      `json:"receipt_url,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// CartLine is one priced line of a checkout cart.
type CartLine struct {
	UnitPriceCents int64 `json:"unit_price_cents" binding:"required,gt=0"`
	Quantity       int   `json:"quantity" binding:"required,gt=0"`
}

// Coupon is the only pricing rule the payment core knows about: a flat
// discount already resolved by the catalog side.
type Coupon struct {
	DiscountCents int64 `json:"discount_cents" binding:"gte=0"`
}

// GatewayEvent is the canonical form of one webhook notification. It exists
// only to drive a single order transition and is never persisted.
type GatewayEvent struct {
	GatewayName    string
	RawStatus      string
	OrderReference string
	Status         OrderStatus
	AmountCents    *int64
	TransactionID  string
	ReceiptURL     string
	Installments   *int
	PaymentMethod  string
}

// StatusEvidence carries the gateway-supplied fields written alongside a
// status transition. Nil pointers leave the stored value untouched.
type StatusEvidence struct {
	TransactionID   string
	ReceiptURL      string
	PaidAmountCents *int64
	Installments    *int
	PaymentMethod   string
}

// ApplyOutcome is the result of one reconciliation attempt.
type ApplyOutcome int

const (
	// ApplyApplied means the order row changed.
	ApplyApplied ApplyOutcome = iota
	// ApplyIgnored means the order was already terminal; the caller must
	// still acknowledge the webhook so the gateway stops retrying.
	ApplyIgnored
)

// OrderRepository is the relational store behind the payment core.
// UpdateStatusIfNotTerminal must be a single atomic conditional write:
// concurrent webhooks for one order must never both observe "not terminal".
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByReference(ctx context.Context, reference string) (*Order, error)
	UpdateStatusIfNotTerminal(ctx context.Context, reference string, status OrderStatus, evidence StatusEvidence) (ApplyOutcome, error)
}

// OrderStatusEvent is published after a reconciliation applies.
type OrderStatusEvent struct {
	OrderReference string      `json:"order_reference"`
	Status         OrderStatus `json:"status"`
	GatewayName    string      `json:"gateway_name"`
	ProcessedAt    time.Time   `json:"processed_at"`
}

// OrderEventPublisher fans applied transitions out to downstream consumers.
type OrderEventPublisher interface {
	PublishStatusChanged(ctx context.Context, event OrderStatusEvent) error
}

// OrderAlert is the best-effort notification sent when a PIX order is created.
type OrderAlert struct {
	OrderReference   string `json:"order_reference"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	CustomerName     string `json:"customer_name,omitempty"`
	CustomerContact  string `json:"customer_contact,omitempty"`
}

// AlertNotifier delivers order alerts. Failures are logged, never propagated.
type AlertNotifier interface {
	NotifyOrderCreated(ctx context.Context, alert OrderAlert) error
}
