package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/gigmarket/internal/domain"
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

func sampleDispute(t *testing.T) *domain.Dispute {
	t.Helper()
	d, err := domain.NewDispute("dispute-001", "order-001", "buyer-001", "Late delivery", "Nothing arrived after a week", time.Now().UTC())
	require.NoError(t, err)
	return d
}

func TestDisputeRepository_Open_ForcesDisputedStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewDisputeRepository(mock)
	d := sampleDispute(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs("DISPUTED", d.CreatedAt, "order-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO disputes").
		WithArgs(d.ID, d.OrderID, d.InitiatorID, d.Reason, d.Description, "OPEN", d.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Open(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_Open_OrderMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewDisputeRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WithArgs(anyArgs(3)...).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Open(context.Background(), sampleDispute(t))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_Open_InsertErrorRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewDisputeRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WithArgs(anyArgs(3)...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO disputes").WithArgs(anyArgs(7)...).WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.Open(context.Background(), sampleDispute(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert dispute")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_ListByOrder(t *testing.T) {
	mock := newMock(t)
	repo := NewDisputeRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM disputes").
		WithArgs("order-001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "initiator_id", "reason", "description", "status", "created_at"}).
			AddRow("d-1", "order-001", "buyer-001", "Late", "Nothing delivered", "OPEN", now).
			AddRow("d-2", "order-001", "seller-001", "Scope", "Buyer changed the brief", "OPEN", now))

	disputes, err := repo.ListByOrder(context.Background(), "order-001")
	require.NoError(t, err)
	require.Len(t, disputes, 2)
	assert.Equal(t, domain.DisputeStatusOpen, disputes[1].Status)
	assert.Equal(t, "seller-001", disputes[1].InitiatorID)
}
