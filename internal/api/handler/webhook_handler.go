package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lojaviva/checkout/internal/domain"
	"github.com/lojaviva/checkout/internal/gateway"
	"github.com/lojaviva/checkout/internal/logger"
	"go.uber.org/zap"
)

type Reconciler interface {
	ApplyStatus(ctx context.Context, event domain.GatewayEvent) (domain.ApplyOutcome, error)
}

// WebhookTokens are the per-gateway shared secrets. An empty token disables
// the check for that gateway (local development only).
type WebhookTokens struct {
	Card string
	Bank string
}

// WebhookHandler receives asynchronous gateway notifications. Every
// successfully parsed event is acknowledged with 200 even when it drives no
// transition, so gateways stop redelivering.
type WebhookHandler struct {
	reconciler Reconciler
	tokens     WebhookTokens
}

func NewWebhookHandler(reconciler Reconciler, tokens WebhookTokens) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, tokens: tokens}
}

// HandleCard handles POST /v1/webhooks/card?token=. The card processor
// authenticates with a shared token in the query string.
func (h *WebhookHandler) HandleCard(c *gin.Context) {
	if !tokenMatches(h.tokens.Card, c.Query("token")) {
		logger.Warn("card webhook rejected: invalid token",
			zap.String("remote_addr", c.ClientIP()),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var notification gateway.CardNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := gateway.ParseCard(notification)
	if err != nil {
		h.rejectOrAcknowledge(c, gateway.NameCard, err)
		return
	}
	h.apply(c, event)
}

// HandleBank handles POST /v1/webhooks/bank. The bank processor sends its
// shared token in the access-token header.
func (h *WebhookHandler) HandleBank(c *gin.Context) {
	if !tokenMatches(h.tokens.Bank, c.GetHeader("access-token")) {
		logger.Warn("bank webhook rejected: invalid token",
			zap.String("remote_addr", c.ClientIP()),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var notification gateway.BankNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := gateway.ParseBank(notification)
	if err != nil {
		h.rejectOrAcknowledge(c, gateway.NameBank, err)
		return
	}
	h.apply(c, event)
}

// HandleCharges handles POST /v1/webhooks/charges. This gateway signs
// nothing; the caller's origin is logged so the exposure can be tightened
// later at the edge.
func (h *WebhookHandler) HandleCharges(c *gin.Context) {
	logger.Info("charges webhook received",
		zap.String("remote_addr", c.ClientIP()),
	)

	var notification gateway.ChargesNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := gateway.ParseCharges(notification)
	if err != nil {
		h.rejectOrAcknowledge(c, gateway.NameCharges, err)
		return
	}
	h.apply(c, event)
}

func (h *WebhookHandler) apply(c *gin.Context, event domain.GatewayEvent) {
	outcome, err := h.reconciler.ApplyStatus(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			logger.Warn("webhook for unknown order",
				zap.String("gateway", event.GatewayName),
				zap.String("order_reference", event.OrderReference),
			)
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		logger.Error("webhook processing failed",
			zap.Error(err),
			zap.String("gateway", event.GatewayName),
			zap.String("order_reference", event.OrderReference),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if outcome == domain.ApplyIgnored {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// rejectOrAcknowledge separates malformed payloads (rejected, no side
// effects) from well-formed notifications that simply drive no transition
// (acknowledged so the gateway stops retrying).
func (h *WebhookHandler) rejectOrAcknowledge(c *gin.Context, gatewayName string, err error) {
	var noop *gateway.NoTransitionError
	if errors.As(err, &noop) {
		logger.Info("webhook acknowledged without transition",
			zap.String("gateway", gatewayName),
			zap.String("raw_status", noop.RawStatus),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func tokenMatches(expected, presented string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
