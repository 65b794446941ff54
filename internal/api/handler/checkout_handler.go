package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lojaviva/checkout/internal/domain"
	"github.com/lojaviva/checkout/internal/logger"
	"github.com/lojaviva/checkout/internal/service"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreatePixOrder(ctx context.Context, req service.CreatePixOrderRequest) (*service.CreatePixOrderResult, error)
	GetOrder(ctx context.Context, reference string) (*domain.Order, error)
}

type CheckoutHandler struct {
	service CheckoutService
}

func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// CreatePixOrder handles POST /v1/checkout/pix: computes the cart total,
// persists the order and returns the BR Code payload.
func (h *CheckoutHandler) CreatePixOrder(c *gin.Context) {
	var req service.CreatePixOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreatePixOrder(c.Request.Context(), req)
	if err != nil {
		var amountErr *domain.InvalidAmountError
		switch {
		case errors.As(err, &amountErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrPixNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pix payments are not configured for this store"})
		default:
			logger.Error("pix checkout failed", zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// orderView is the safe subset of an order exposed to the storefront.
type orderView struct {
	ID               string    `json:"id"`
	OrderReference   string    `json:"order_reference"`
	Status           string    `json:"status"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	PaidAmountCents  *int64    `json:"paid_amount_cents,omitempty"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	Installments     *int      `json:"installments,omitempty"`
	ReceiptURL       string    `json:"receipt_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// GetOrder handles GET /v1/orders/:reference. Malformed references are
// rejected before the service touches storage.
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("reference"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed order reference"})
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		default:
			logger.Error("order lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, orderView{
		ID:               order.ID,
		OrderReference:   order.OrderReference,
		Status:           string(order.Status),
		TotalAmountCents: order.TotalAmountCents,
		PaidAmountCents:  order.PaidAmountCents,
		PaymentMethod:    order.PaymentMethod,
		Installments:     order.Installments,
		ReceiptURL:       order.ReceiptURL,
		CreatedAt:        order.CreatedAt,
	})
}
