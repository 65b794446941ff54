package gateway

import "github.com/lojaviva/checkout/internal/domain"

// CardNotification is the card processor's capture webhook. The processor
// only notifies settled captures, so a valid payload always means PAID.
type CardNotification struct {
	OrderReference string  `json:"order_reference" binding:"required"`
	TransactionID  string  `json:"transaction_id" binding:"required"`
	CaptureMethod  string  `json:"capture_method" binding:"required,oneof=credit_card pix debit_card boleto"`
	PaidAmount     float64 `json:"paid_amount" binding:"gte=0"`
	Installments   int     `json:"installments" binding:"required,min=1,max=48"`
	ReceiptURL     string  `json:"receipt_url" binding:"omitempty,url"`
}

// ParseCard validates a card capture notification and derives its event.
func ParseCard(n CardNotification) (domain.GatewayEvent, error) {
	if n.OrderReference == "" || n.TransactionID == "" {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameCard, Reason: "missing order_reference or transaction_id"}
	}
	if n.PaidAmount < 0 {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameCard, Reason: "negative paid_amount"}
	}
	if n.Installments < 1 || n.Installments > 48 {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameCard, Reason: "installments out of range"}
	}

	paidCents := int64(n.PaidAmount*100 + 0.5)
	installments := n.Installments
	return domain.GatewayEvent{
		GatewayName:    NameCard,
		RawStatus:      "PAID",
		OrderReference: n.OrderReference,
		Status:         domain.StatusPaid,
		AmountCents:    &paidCents,
		TransactionID:  n.TransactionID,
		ReceiptURL:     n.ReceiptURL,
		Installments:   &installments,
		PaymentMethod:  n.CaptureMethod,
	}, nil
}
