package gateway

import "github.com/lojaviva/checkout/internal/domain"

// ChargesNotification is the card-alternate gateway's envelope: a charge list
// keyed by the storefront's reference. The first charge drives the
// transition; an empty list is the gateway's creation ping.
type ChargesNotification struct {
	ID          string   `json:"id" binding:"required"`
	ReferenceID string   `json:"reference_id" binding:"required"`
	Charges     []Charge `json:"charges"`
}

type Charge struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PaymentMethod struct {
		Type         string `json:"type"`
		Installments int    `json:"installments"`
	} `json:"payment_method"`
	Amount struct {
		Value int64 `json:"value"`
	} `json:"amount"`
	Links []ChargeLink `json:"links"`
}

type ChargeLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// ParseCharges validates a charges-envelope notification and derives its
// event. A chargeless envelope returns NoTransitionError: the gateway pings on
// checkout creation before any charge exists.
func ParseCharges(n ChargesNotification) (domain.GatewayEvent, error) {
	if n.ID == "" || n.ReferenceID == "" {
		return domain.GatewayEvent{}, &ValidationError{Gateway: NameCharges, Reason: "missing id or reference_id"}
	}
	if len(n.Charges) == 0 {
		return domain.GatewayEvent{}, &NoTransitionError{Gateway: NameCharges, RawStatus: "no charges"}
	}

	charge := n.Charges[0]
	status, ok := CanonicalStatus(charge.Status)
	if !ok {
		return domain.GatewayEvent{}, &NoTransitionError{Gateway: NameCharges, RawStatus: charge.Status}
	}

	event := domain.GatewayEvent{
		GatewayName:    NameCharges,
		RawStatus:      charge.Status,
		OrderReference: n.ReferenceID,
		Status:         status,
		TransactionID:  charge.ID,
		PaymentMethod:  charge.PaymentMethod.Type,
	}
	if charge.PaymentMethod.Installments > 0 {
		installments := charge.PaymentMethod.Installments
		event.Installments = &installments
	}
	if charge.Amount.Value > 0 {
		cents := charge.Amount.Value
		event.AmountCents = &cents
	}
	for _, link := range charge.Links {
		if link.Rel == "RECEIPT" {
			event.ReceiptURL = link.Href
			break
		}
	}
	return event, nil
}
