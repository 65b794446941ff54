package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lojaviva/checkout/internal/domain"
	"github.com/lojaviva/checkout/internal/pix"
)

// Mock repository
type MockRepo struct {
	CreateFunc         func(ctx context.Context, order *domain.Order) error
	GetByReferenceFunc func(ctx context.Context, reference string) (*domain.Order, error)
	UpdateStatusFunc   func(ctx context.Context, reference string, status domain.OrderStatus, evidence domain.StatusEvidence) (domain.ApplyOutcome, error)
}

func (m *MockRepo) Create(ctx context.Context, order *domain.Order) error {
	return m.CreateFunc(ctx, order)
}
func (m *MockRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return m.GetByReferenceFunc(ctx, reference)
}
func (m *MockRepo) UpdateStatusIfNotTerminal(ctx context.Context, reference string, status domain.OrderStatus, evidence domain.StatusEvidence) (domain.ApplyOutcome, error) {
	return m.UpdateStatusFunc(ctx, reference, status, evidence)
}

// Mock alert notifier
type MockNotifier struct {
	mu     sync.Mutex
	alerts []domain.OrderAlert
	err    error
	done   chan struct{}
}

func (m *MockNotifier) NotifyOrderCreated(ctx context.Context, alert domain.OrderAlert) error {
	m.mu.Lock()
	m.alerts = append(m.alerts, alert)
	m.mu.Unlock()
	if m.done != nil {
		close(m.done)
	}
	return m.err
}

func testSettings() PixSettings {
	return PixSettings{Key: "loja@lojaviva.com.br", MerchantName: "Loja Viva", MerchantCity: "Sao Paulo"}
}

func TestComputeTotal(t *testing.T) {
	lines := []domain.CartLine{
		{UnitPriceCents: 1000, Quantity: 2},
		{UnitPriceCents: 500, Quantity: 1},
	}

	if got := ComputeTotal(lines, nil); got != 2500 {
		t.Errorf("without coupon: got %d, want 2500", got)
	}
	if got := ComputeTotal(lines, &domain.Coupon{DiscountCents: 300}); got != 2200 {
		t.Errorf("with coupon: got %d, want 2200", got)
	}
	if got := ComputeTotal(lines, &domain.Coupon{DiscountCents: 99999}); got != 0 {
		t.Errorf("oversized coupon must clamp to 0, got %d", got)
	}
}

func TestComputeTotal_SaturatesInsteadOfWrapping(t *testing.T) {
	// A line product that overflows int64 must not wrap around to a small
	// total that would pass the max-amount check.
	lines := []domain.CartLine{
		{UnitPriceCents: 1 << 62, Quantity: 4},
		{UnitPriceCents: 1000, Quantity: 1},
	}
	if got := ComputeTotal(lines, nil); got != math.MaxInt64 {
		t.Errorf("overflowing cart: got %d, want MaxInt64", got)
	}

	// Same for the running sum across lines.
	lines = []domain.CartLine{
		{UnitPriceCents: math.MaxInt64, Quantity: 1},
		{UnitPriceCents: math.MaxInt64, Quantity: 1},
	}
	if got := ComputeTotal(lines, nil); got != math.MaxInt64 {
		t.Errorf("overflowing sum: got %d, want MaxInt64", got)
	}
}

func TestCreatePixOrder_Success(t *testing.T) {
	var persisted *domain.Order
	repo := &MockRepo{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			persisted = order
			return nil
		},
	}
	notifier := &MockNotifier{done: make(chan struct{})}
	svc := NewCheckoutService(repo, notifier, testSettings(), 100_000_000)

	result, err := svc.CreatePixOrder(context.Background(), CreatePixOrderRequest{
		CartLines:       []domain.CartLine{{UnitPriceCents: 1000, Quantity: 2}, {UnitPriceCents: 500, Quantity: 1}},
		Coupon:          &domain.Coupon{DiscountCents: 300},
		CustomerName:    "Maria",
		CustomerContact: "+5511999998888",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalAmountCents != 2200 {
		t.Errorf("total = %d, want 2200", result.TotalAmountCents)
	}
	if persisted == nil {
		t.Fatal("order was not persisted")
	}
	if persisted.Status != domain.StatusPendingPix {
		t.Errorf("persisted status = %s, want PENDING_PIX", persisted.Status)
	}
	if persisted.OrderReference != result.OrderReference {
		t.Error("result reference differs from persisted reference")
	}
	if !referencePattern.MatchString(result.OrderReference) {
		t.Errorf("reference %q does not match the generation pattern", result.OrderReference)
	}

	// Payload ends in 6304 + CRC of everything before it.
	marker := len(result.PixPayload) - 8
	if result.PixPayload[marker:marker+4] != "6304" {
		t.Fatalf("payload missing CRC field: %q", result.PixPayload)
	}
	if crc := pix.Checksum(result.PixPayload[:marker+4]); result.PixPayload[marker+4:] != crc {
		t.Errorf("payload CRC mismatch")
	}

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("order alert was not dispatched")
	}
	if notifier.alerts[0].OrderReference != result.OrderReference {
		t.Errorf("alert carries reference %q", notifier.alerts[0].OrderReference)
	}
}

func TestCreatePixOrder_InvalidAmounts(t *testing.T) {
	repo := &MockRepo{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			t.Fatal("order must not be persisted for invalid amounts")
			return nil
		},
	}
	svc := NewCheckoutService(repo, nil, testSettings(), 100_000_000)

	var amountErr *domain.InvalidAmountError

	// Coupon swallowing the whole subtotal clamps to zero, which is invalid.
	_, err := svc.CreatePixOrder(context.Background(), CreatePixOrderRequest{
		CartLines: []domain.CartLine{{UnitPriceCents: 100, Quantity: 1}},
		Coupon:    &domain.Coupon{DiscountCents: 100},
	})
	if !errors.As(err, &amountErr) {
		t.Errorf("clamped total: expected InvalidAmountError, got %v", err)
	}

	_, err = svc.CreatePixOrder(context.Background(), CreatePixOrderRequest{
		CartLines: []domain.CartLine{{UnitPriceCents: 100_000_000, Quantity: 2}},
	})
	if !errors.As(err, &amountErr) {
		t.Errorf("oversized total: expected InvalidAmountError, got %v", err)
	}

	// A cart whose total overflows int64 must be rejected, not persisted
	// with the wrapped total.
	_, err = svc.CreatePixOrder(context.Background(), CreatePixOrderRequest{
		CartLines: []domain.CartLine{{UnitPriceCents: 1 << 62, Quantity: 4}, {UnitPriceCents: 1000, Quantity: 1}},
	})
	if !errors.As(err, &amountErr) {
		t.Errorf("overflowing total: expected InvalidAmountError, got %v", err)
	}
}

func TestCreatePixOrder_MissingPixSettings(t *testing.T) {
	svc := NewCheckoutService(&MockRepo{}, nil, PixSettings{}, 100_000_000)

	_, err := svc.CreatePixOrder(context.Background(), CreatePixOrderRequest{
		CartLines: []domain.CartLine{{UnitPriceCents: 1000, Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrPixNotConfigured) {
		t.Errorf("expected ErrPixNotConfigured, got %v", err)
	}
}

func TestCreatePixOrder_NotifierFailureDoesNotFailOrder(t *testing.T) {
	repo := &MockRepo{
		CreateFunc: func(ctx context.Context, order *domain.Order) error { return nil },
	}
	notifier := &MockNotifier{err: errors.New("alert channel down"), done: make(chan struct{})}
	svc := NewCheckoutService(repo, notifier, testSettings(), 100_000_000)

	_, err := svc.CreatePixOrder(context.Background(), CreatePixOrderRequest{
		CartLines: []domain.CartLine{{UnitPriceCents: 1000, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("notifier failure leaked into order creation: %v", err)
	}
	<-notifier.done
}

func TestGetOrder_ReferenceValidation(t *testing.T) {
	repo := &MockRepo{
		GetByReferenceFunc: func(ctx context.Context, reference string) (*domain.Order, error) {
			t.Fatalf("storage reached for malformed reference %q", reference)
			return nil, nil
		},
	}
	svc := NewCheckoutService(repo, nil, testSettings(), 100_000_000)

	for _, ref := range []string{"DROP TABLE", "PIX_abc_def", "ORDER_123_ABC", "pix_123_abc", "PIX_123_", ""} {
		if _, err := svc.GetOrder(context.Background(), ref); !errors.Is(err, domain.ErrInvalidReference) {
			t.Errorf("reference %q: expected ErrInvalidReference, got %v", ref, err)
		}
	}
}

func TestGetOrder_Found(t *testing.T) {
	repo := &MockRepo{
		GetByReferenceFunc: func(ctx context.Context, reference string) (*domain.Order, error) {
			return &domain.Order{OrderReference: reference, Status: domain.StatusPaid}, nil
		},
	}
	svc := NewCheckoutService(repo, nil, testSettings(), 100_000_000)

	order, err := svc.GetOrder(context.Background(), "PIX_1700000000000_ab12cd34ef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.StatusPaid {
		t.Errorf("status = %s", order.Status)
	}
}

func TestNewOrderReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := NewOrderReference("ORDER")
		if !referencePattern.MatchString(ref) {
			t.Fatalf("reference %q does not match pattern", ref)
		}
		if !strings.HasPrefix(ref, "ORDER_") {
			t.Fatalf("reference %q missing prefix", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference generated: %q", ref)
		}
		seen[ref] = true
	}
}
