package gateway

import "github.com/lojaviva/checkout/internal/domain"

// BankNotification is the boleto/bank processor's envelope: an event name
// wrapping a payment object. Only RECEIVED, CONFIRMED, OVERDUE and CANCELED
// statuses are actionable.
type BankNotification struct {
	Event   string `json:"event" binding:"required"`
	Payment struct {
		Status                string  `json:"status" binding:"required"`
		ExternalReference     string  `json:"externalReference" binding:"required"`
		ID                    string  `json:"id"`
		Value                 float64 `json:"value"`
		BillingType           string  `json:"billingType"`
		TransactionReceiptURL string  `json:"transactionReceiptUrl"`
	} `json:"payment" binding:"required"`
}

// ParseBank validates a bank processor notification and derives its event.
func ParseBank(n BankNotification) (domain.GatewayEvent, error) {
	if n.Event == "" {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameBank, Reason: "missing event name"}
	}
	if n.Payment.ExternalReference == "" {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameBank, Reason: "missing payment.externalReference"}
	}
	if n.Payment.Status == "" {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameBank, Reason: "missing payment.status"}
	}

	status, ok := CanonicalStatus(n.Payment.Status)
	if !ok {
		return domain.GatewayEvent{}, &NoTransitionError{Gateway: NameBank, RawStatus: n.Payment.Status}
	}

	event := domain.GatewayEvent{
		GatewayName:    NameBank,
		RawStatus:      n.Payment.Status,
		OrderReference: n.Payment.ExternalReference,
		Status:         status,
		TransactionID:  n.Payment.ID,
		ReceiptURL:     n.Payment.TransactionReceiptURL,
		PaymentMethod:  "boleto",
	}
	if n.Payment.Value > 0 {
		cents := int64(n.Payment.Value*100 + 0.5)
		event.AmountCents = &cents
	}
	return event, nil
}
