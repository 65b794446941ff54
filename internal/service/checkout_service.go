package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lojaviva/checkout/internal/domain"
	"github.com/lojaviva/checkout/internal/logger"
	"github.com/lojaviva/checkout/internal/pix"
	"go.uber.org/zap"
)

// referencePattern gates every externally supplied order reference before any
// storage access.
var referencePattern = regexp.MustCompile(`^(ORDER|PIX)_[0-9]+_[a-z0-9]+$`)

// PixSettings is the store's receiving profile, injected from configuration.
type PixSettings struct {
	Key          string
	MerchantName string
	MerchantCity string
}

// CheckoutService computes cart totals, persists PIX orders and hands the
// payload back to the storefront.
type CheckoutService struct {
	repo           domain.OrderRepository
	notifier       domain.AlertNotifier
	settings       PixSettings
	maxAmountCents int64
}

func NewCheckoutService(repo domain.OrderRepository, notifier domain.AlertNotifier, settings PixSettings, maxAmountCents int64) *CheckoutService {
	return &CheckoutService{
		repo:           repo,
		notifier:       notifier,
		settings:       settings,
		maxAmountCents: maxAmountCents,
	}
}

// CreatePixOrderRequest is a checkout attempt: priced cart lines, the buyer's
// contact for the order alert, and an optional flat-discount coupon.
type CreatePixOrderRequest struct {
	CartLines       []domain.CartLine `json:"cart_lines" binding:"required,min=1,dive"`
	CustomerName    string            `json:"customer_name"`
	CustomerContact string            `json:"customer_contact"`
	Coupon          *domain.Coupon    `json:"coupon"`
}

type CreatePixOrderResult struct {
	OrderReference   string `json:"order_reference"`
	PixPayload       string `json:"pix_payload"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

// ComputeTotal sums the cart in integer cents and applies the coupon,
// clamping at zero. No floating point touches the math. Line products and
// the running sum saturate at MaxInt64 instead of wrapping, so an
// absurdly priced cart lands above the max-amount bound rather than under it.
func ComputeTotal(lines []domain.CartLine, coupon *domain.Coupon) int64 {
	var total int64
	for _, line := range lines {
		total = saturatingAdd(total, saturatingMul(line.UnitPriceCents, int64(line.Quantity)))
	}
	if coupon != nil {
		total -= coupon.DiscountCents
	}
	if total < 0 {
		total = 0
	}
	return total
}

func saturatingMul(a, b int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

func saturatingAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// CreatePixOrder builds the BR Code for the cart and persists the order as
// PENDING_PIX before the payload leaves the service, so a webhook racing the
// HTTP response always finds a row to update.
func (s *CheckoutService) CreatePixOrder(ctx context.Context, req CreatePixOrderRequest) (*CreatePixOrderResult, error) {
	if s.settings.Key == "" {
		return nil, domain.ErrPixNotConfigured
	}

	total := ComputeTotal(req.CartLines, req.Coupon)
	if total <= 0 {
		return nil, &domain.InvalidAmountError{TotalCents: total, Reason: "total must be positive"}
	}
	if total > s.maxAmountCents {
		return nil, &domain.InvalidAmountError{TotalCents: total, Reason: "total exceeds maximum order amount"}
	}

	reference := NewOrderReference("PIX")
	payload, err := pix.BuildPayload(pix.Request{
		Key:           pix.NewKey(s.settings.Key),
		Merchant:      pix.Merchant{Name: s.settings.MerchantName, City: s.settings.MerchantCity},
		AmountCents:   total,
		TransactionID: transactionIDFromReference(reference),
	})
	if err != nil {
		logger.Error("failed to build pix payload",
			zap.Error(err),
			zap.String("order_reference", reference),
		)
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:               uuid.New().String(),
		OrderReference:   reference,
		Status:           domain.StatusPendingPix,
		TotalAmountCents: total,
		PaymentMethod:    "pix",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		logger.Error("failed to persist pix order",
			zap.Error(err),
			zap.String("order_reference", reference),
		)
		return nil, err
	}

	logger.Info("pix order created",
		zap.String("order_reference", reference),
		zap.Int64("total_amount_cents", total),
	)

	s.notifyAsync(domain.OrderAlert{
		OrderReference:   reference,
		TotalAmountCents: total,
		CustomerName:     req.CustomerName,
		CustomerContact:  req.CustomerContact,
	})

	return &CreatePixOrderResult{
		OrderReference:   reference,
		PixPayload:       payload,
		TotalAmountCents: total,
	}, nil
}

// notifyAsync dispatches the order alert without blocking the response. The
// notification is best-effort: a failure is logged and swallowed.
func (s *CheckoutService) notifyAsync(alert domain.OrderAlert) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyOrderCreated(ctx, alert); err != nil {
			logger.Warn("order alert delivery failed",
				zap.Error(err),
				zap.String("order_reference", alert.OrderReference),
			)
		}
	}()
}

// GetOrder returns the order for a reference, rejecting references that do
// not match the generation pattern before storage is consulted.
func (s *CheckoutService) GetOrder(ctx context.Context, reference string) (*domain.Order, error) {
	if !referencePattern.MatchString(reference) {
		return nil, domain.ErrInvalidReference
	}
	return s.repo.GetByReference(ctx, reference)
}

// NewOrderReference generates a correlation key with enough entropy to make
// enumeration infeasible: millisecond timestamp plus a random suffix.
func NewOrderReference(prefix string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

// transactionIDFromReference strips the reference down to the character set
// the BR Code transaction id field accepts.
func transactionIDFromReference(reference string) string {
	var b strings.Builder
	for _, r := range reference {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
