package service

import (
	"context"
	"time"

	"github.com/lojaviva/checkout/internal/domain"
	"github.com/lojaviva/checkout/internal/logger"
	"go.uber.org/zap"
)

// Reconciler applies canonical gateway events to orders. The terminal-state
// guard lives in the repository's conditional update, so redelivered and
// conflicting webhooks are safe under concurrency.
type Reconciler struct {
	repo      domain.OrderRepository
	publisher domain.OrderEventPublisher
}

func NewReconciler(repo domain.OrderRepository, publisher domain.OrderEventPublisher) *Reconciler {
	return &Reconciler{repo: repo, publisher: publisher}
}

// ApplyStatus performs one guarded transition. ApplyIgnored means the order
// was already terminal; callers acknowledge it as success so the gateway
// stops retrying. domain.ErrOrderNotFound is returned for unknown references.
func (r *Reconciler) ApplyStatus(ctx context.Context, event domain.GatewayEvent) (domain.ApplyOutcome, error) {
	evidence := domain.StatusEvidence{
		TransactionID:   event.TransactionID,
		ReceiptURL:      event.ReceiptURL,
		PaidAmountCents: event.AmountCents,
		Installments:    event.Installments,
		PaymentMethod:   event.PaymentMethod,
	}

	outcome, err := r.repo.UpdateStatusIfNotTerminal(ctx, event.OrderReference, event.Status, evidence)
	if err != nil {
		return outcome, err
	}

	if outcome == domain.ApplyIgnored {
		logger.Info("webhook ignored, order already terminal",
			zap.String("order_reference", event.OrderReference),
			zap.String("gateway", event.GatewayName),
			zap.String("raw_status", event.RawStatus),
		)
		return outcome, nil
	}

	logger.Info("order status applied",
		zap.String("order_reference", event.OrderReference),
		zap.String("gateway", event.GatewayName),
		zap.String("status", string(event.Status)),
	)

	if r.publisher != nil {
		if err := r.publisher.PublishStatusChanged(ctx, domain.OrderStatusEvent{
			OrderReference: event.OrderReference,
			Status:         event.Status,
			GatewayName:    event.GatewayName,
			ProcessedAt:    time.Now().UTC(),
		}); err != nil {
			// Best-effort: a broken event bus must not make the gateway
			// redeliver an already-applied payment.
			logger.Error("failed to publish order status event",
				zap.Error(err),
				zap.String("order_reference", event.OrderReference),
			)
		}
	}

	return outcome, nil
}
