package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/repository"
	"github.com/utafrali/gigmarket/pkg/database"
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

const idempotencyIndex = "orders_buyer_idempotency_key"

const orderColumns = `id, gig_id, buyer_id, seller_id, package_type, price, service_fee, total_amount,
		status, payment_status, delivery_date, requirements, max_revisions, completed_at,
		idempotency_key, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its payment ledger entry in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order, p *domain.Payment) (err error) {
	orderQuery := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	ctx, end := database.TraceQuery(ctx, "orders.create", orderQuery)
	defer func() { end(err) }()

	requirements := o.Requirements
	if requirements == nil {
		requirements = map[string]string{}
	}
	requirementsJSON, err := json.Marshal(requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, orderQuery,
			o.ID,
			o.GigID,
			o.BuyerID,
			o.SellerID,
			string(o.PackageType),
			domain.ToCents(o.Price),
			domain.ToCents(o.ServiceFee),
			domain.ToCents(o.TotalAmount),
			string(o.Status),
			string(o.PaymentStatus),
			o.DeliveryDate,
			requirementsJSON,
			o.MaxRevisions,
			o.CompletedAt,
			nullable(o.IdempotencyKey),
			o.CreatedAt,
			o.UpdatedAt,
		)
		if err != nil {
			if constraint, ok := database.UniqueViolation(err); ok && constraint == idempotencyIndex {
				return repository.ErrDuplicateIdempotencyKey
			}
			return fmt.Errorf("insert order: %w", err)
		}

		paymentQuery := `
			INSERT INTO payments (id, order_id, user_id, amount, type, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`

		_, err = tx.Exec(ctx, paymentQuery,
			p.ID,
			p.OrderID,
			p.UserID,
			domain.ToCents(p.Amount),
			string(p.Type),
			string(p.Status),
			p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "orders.get", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound(id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

// GetByIdempotencyKey finds the buyer's order created under key.
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 AND idempotency_key = $2`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, buyerID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order by idempotency key: %w", err)
	}
	return o, nil
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.BuyerID != nil {
		conditions = append(conditions, fmt.Sprintf("buyer_id = $%d", argIndex))
		args = append(args, *filter.BuyerID)
		argIndex++
	}

	if filter.SellerID != nil {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", argIndex))
		args = append(args, *filter.SellerID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.Page.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Page.Offset()
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, totalCount, nil
}

// UpdateStatus writes the order's status, completion time and update time,
// provided the stored status is still expected.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus) (err error) {
	query := `
		UPDATE orders
		SET status = $1, completed_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5`

	ctx, end := database.TraceQuery(ctx, "orders.update_status", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, string(o.Status), o.CompletedAt, o.UpdatedAt, o.ID, string(expected))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.Conflict(fmt.Sprintf("order %s is no longer %s", o.ID, expected))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder reads orderColumns, followed by any extra destinations.
func scanOrder(row rowScanner, extra ...any) (*domain.Order, error) {
	var (
		o                            domain.Order
		packageType, status, payment string
		price, serviceFee, total     int64
		requirementsJSON             []byte
		idempotencyKey               *string
		completedAt                  *time.Time
	)

	dest := []any{
		&o.ID,
		&o.GigID,
		&o.BuyerID,
		&o.SellerID,
		&packageType,
		&price,
		&serviceFee,
		&total,
		&status,
		&payment,
		&o.DeliveryDate,
		&requirementsJSON,
		&o.MaxRevisions,
		&completedAt,
		&idempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	o.PackageType = domain.PackageType(packageType)
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(payment)
	o.Price = domain.FromCents(price)
	o.ServiceFee = domain.FromCents(serviceFee)
	o.TotalAmount = domain.FromCents(total)
	o.CompletedAt = completedAt
	if idempotencyKey != nil {
		o.IdempotencyKey = *idempotencyKey
	}

	if len(requirementsJSON) > 0 && string(requirementsJSON) != "null" && string(requirementsJSON) != "{}" {
		if err := json.Unmarshal(requirementsJSON, &o.Requirements); err != nil {
			return nil, fmt.Errorf("unmarshal requirements: %w", err)
		}
	}

	return &o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
