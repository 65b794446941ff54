package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lojaviva/checkout/internal/domain"
)

// OrderRepository stores orders in Postgres. All status mutations go through
// UpdateStatusIfNotTerminal, a single conditional UPDATE, so concurrent
// webhooks serialize at the row level instead of racing in application code.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Schema is the orders table DDL, applied by migrations and by the
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                     TEXT PRIMARY KEY,
	order_reference        TEXT NOT NULL UNIQUE,
	status                 TEXT NOT NULL,
	total_amount_cents     BIGINT NOT NULL,
	paid_amount_cents      BIGINT,
	payment_method         TEXT NOT NULL DEFAULT '',
	installments           INTEGER,
	gateway_transaction_id TEXT NOT NULL DEFAULT '',
	receipt_url            TEXT NOT NULL DEFAULT '',
	created_at             TIMESTAMPTZ NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL
)`

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (id, order_reference, status, total_amount_cents, paid_amount_cents,
			payment_method, installments, gateway_transaction_id, receipt_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.OrderReference, order.Status, order.TotalAmountCents, order.PaidAmountCents,
		order.PaymentMethod, order.Installments, order.GatewayTxnID, order.ReceiptURL,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.OrderReference, err)
	}
	return nil
}

func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, order_reference, status, total_amount_cents, paid_amount_cents,
			payment_method, installments, gateway_transaction_id, receipt_url, created_at, updated_at
		FROM orders WHERE order_reference = $1`, reference)

	var o domain.Order
	err := row.Scan(&o.ID, &o.OrderReference, &o.Status, &o.TotalAmountCents, &o.PaidAmountCents,
		&o.PaymentMethod, &o.Installments, &o.GatewayTxnID, &o.ReceiptURL, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order %s: %w", reference, err)
	}
	return &o, nil
}

// UpdateStatusIfNotTerminal writes the new status and evidence only when the
// stored status is not yet PAID or CANCELLED. The guard lives in the WHERE
// clause, so redelivered or late conflicting webhooks cannot regress a
// terminal order. COALESCE keeps previously written evidence when a gateway
// omits a field.
func (r *OrderRepository) UpdateStatusIfNotTerminal(ctx context.Context, reference string, status domain.OrderStatus, evidence domain.StatusEvidence) (domain.ApplyOutcome, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			status                 = $2,
			paid_amount_cents      = COALESCE($3, paid_amount_cents),
			payment_method         = COALESCE(NULLIF($4, ''), payment_method),
			installments           = COALESCE($5, installments),
			gateway_transaction_id = COALESCE(NULLIF($6, ''), gateway_transaction_id),
			receipt_url            = COALESCE(NULLIF($7, ''), receipt_url),
			updated_at             = $8
		WHERE order_reference = $1
		  AND status NOT IN ($9, $10)`,
		reference, status,
		evidence.PaidAmountCents, evidence.PaymentMethod, evidence.Installments,
		evidence.TransactionID, evidence.ReceiptURL, time.Now().UTC(),
		domain.StatusPaid, domain.StatusCancelled,
	)
	if err != nil {
		return domain.ApplyIgnored, fmt.Errorf("update order %s: %w", reference, err)
	}
	if tag.RowsAffected() > 0 {
		return domain.ApplyApplied, nil
	}

	// No row changed: either the order is already terminal or it does not
	// exist. Distinguish the two for the caller.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE order_reference = $1)`, reference).Scan(&exists); err != nil {
		return domain.ApplyIgnored, fmt.Errorf("check order %s: %w", reference, err)
	}
	if !exists {
		return domain.ApplyIgnored, domain.ErrOrderNotFound
	}
	return domain.ApplyIgnored, nil
}
