package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lojaviva/checkout/internal/domain"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("checkout_test"),
		tcpostgres.WithUsername("checkout"),
		tcpostgres.WithPassword("checkout"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("docker not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

func newTestOrder(status domain.OrderStatus) *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:               uuid.New().String(),
		OrderReference:   "PIX_" + uuid.New().String()[:8],
		Status:           status,
		TotalAmountCents: 2200,
		PaymentMethod:    "pix",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestOrderRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool := setupTestPool(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		order := newTestOrder(domain.StatusPendingPix)
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.GetByReference(ctx, order.OrderReference)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != domain.StatusPendingPix || got.TotalAmountCents != 2200 {
			t.Errorf("unexpected order: %+v", got)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		if _, err := repo.GetByReference(ctx, "PIX_00000000"); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("conditional update applies once", func(t *testing.T) {
		order := newTestOrder(domain.StatusPendingPix)
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create: %v", err)
		}

		paid := int64(2200)
		outcome, err := repo.UpdateStatusIfNotTerminal(ctx, order.OrderReference, domain.StatusPaid, domain.StatusEvidence{
			TransactionID:   "txn-1",
			PaidAmountCents: &paid,
		})
		if err != nil || outcome != domain.ApplyApplied {
			t.Fatalf("first update: outcome=%v err=%v", outcome, err)
		}

		// Redelivery of the same event is ignored, not an error.
		outcome, err = repo.UpdateStatusIfNotTerminal(ctx, order.OrderReference, domain.StatusPaid, domain.StatusEvidence{TransactionID: "txn-1"})
		if err != nil || outcome != domain.ApplyIgnored {
			t.Fatalf("redelivery: outcome=%v err=%v", outcome, err)
		}

		// A late CANCELLED from another gateway must not regress PAID.
		outcome, err = repo.UpdateStatusIfNotTerminal(ctx, order.OrderReference, domain.StatusCancelled, domain.StatusEvidence{})
		if err != nil || outcome != domain.ApplyIgnored {
			t.Fatalf("late cancel: outcome=%v err=%v", outcome, err)
		}

		got, err := repo.GetByReference(ctx, order.OrderReference)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != domain.StatusPaid {
			t.Errorf("status regressed to %s", got.Status)
		}
		if got.PaidAmountCents == nil || *got.PaidAmountCents != 2200 {
			t.Errorf("paid amount not preserved: %+v", got.PaidAmountCents)
		}
	})

	t.Run("update unknown order", func(t *testing.T) {
		_, err := repo.UpdateStatusIfNotTerminal(ctx, "PIX_11111111", domain.StatusPaid, domain.StatusEvidence{})
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("concurrent webhooks settle on one terminal status", func(t *testing.T) {
		order := newTestOrder(domain.StatusPendingPix)
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create: %v", err)
		}

		statuses := []domain.OrderStatus{
			domain.StatusPaid, domain.StatusCancelled,
			domain.StatusPaid, domain.StatusCancelled,
		}
		var wg sync.WaitGroup
		applied := make(chan domain.OrderStatus, len(statuses))
		for _, s := range statuses {
			wg.Add(1)
			go func(s domain.OrderStatus) {
				defer wg.Done()
				outcome, err := repo.UpdateStatusIfNotTerminal(ctx, order.OrderReference, s, domain.StatusEvidence{})
				if err == nil && outcome == domain.ApplyApplied {
					applied <- s
				}
			}(s)
		}
		wg.Wait()
		close(applied)

		var winners []domain.OrderStatus
		for s := range applied {
			winners = append(winners, s)
		}
		if len(winners) != 1 {
			t.Fatalf("expected exactly one applied transition, got %v", winners)
		}

		got, err := repo.GetByReference(ctx, order.OrderReference)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != winners[0] {
			t.Errorf("stored status %s does not match applied %s", got.Status, winners[0])
		}
	})
}
