package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/pkg/database"
)

// DisputeRepository implements repository.DisputeRepository using PostgreSQL.
type DisputeRepository struct {
	pool database.DBTX
}

// NewDisputeRepository creates a new PostgreSQL-backed dispute repository.
func NewDisputeRepository(pool database.DBTX) *DisputeRepository {
	return &DisputeRepository{pool: pool}
}

// Open inserts the dispute and forces its order into DISPUTED, whatever the
// order's current status.
func (r *DisputeRepository) Open(ctx context.Context, d *domain.Dispute) (err error) {
	insertQuery := `
		INSERT INTO disputes (id, order_id, initiator_id, reason, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "disputes.open", insertQuery)
	defer func() { end(err) }()

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		updateQuery := `
			UPDATE orders
			SET status = $1, updated_at = $2
			WHERE id = $3`

		ct, err := tx.Exec(ctx, updateQuery, string(domain.OrderStatusDisputed), d.CreatedAt, d.OrderID)
		if err != nil {
			return fmt.Errorf("mark order disputed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrOrderNotFound(d.OrderID)
		}

		_, err = tx.Exec(ctx, insertQuery,
			d.ID,
			d.OrderID,
			d.InitiatorID,
			d.Reason,
			d.Description,
			string(d.Status),
			d.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert dispute: %w", err)
		}
		return nil
	})
}

// ListByOrder returns the order's disputes, oldest first.
func (r *DisputeRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Dispute, error) {
	query := `
		SELECT id, order_id, initiator_id, reason, description, status, created_at
		FROM disputes
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]domain.Dispute, 0)
	for rows.Next() {
		var (
			d      domain.Dispute
			status string
		)
		if err := rows.Scan(&d.ID, &d.OrderID, &d.InitiatorID, &d.Reason, &d.Description, &status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dispute row: %w", err)
		}
		d.Status = domain.DisputeStatus(status)
		disputes = append(disputes, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispute rows: %w", err)
	}

	return disputes, nil
}
