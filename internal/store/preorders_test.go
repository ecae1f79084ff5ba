package store

import (
	"context"
	"testing"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preorderRows(id int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "status", "desired_at", "confirmed_at",
		"ready_at", "picked_up_at", "created_at",
	}).AddRow(id, int64(1), status, nil, nil, nil, nil, time.Now())
}

func TestCreatePreorder(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO preorders").
		WillReturnRows(preorderRows(5, models.PreorderStatusRequested))
	mock.ExpectExec("INSERT INTO preorder_items").
		WithArgs(int64(5), int64(2), "Sourdough Loaf", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO preorder_items").
		WithArgs(int64(5), int64(4), "Coffee Beans", 200).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	preorder, err := store.CreatePreorder(context.Background(), 1, nil, []PreorderLine{
		{ProductID: 2, ProductName: "Sourdough Loaf", Quantity: 1},
		{ProductID: 4, ProductName: "Coffee Beans", Quantity: 200},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), preorder.ID)
	assert.Equal(t, models.PreorderStatusRequested, preorder.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPreorder(t *testing.T) {
	t.Run("requested preorder is confirmed", func(t *testing.T) {
		store, mock := setupTestStore(t)
		confirmedAt := time.Now().Add(24 * time.Hour)

		mock.ExpectQuery("UPDATE preorders").
			WithArgs(models.PreorderStatusConfirmed, confirmedAt, models.PreorderStatusRequested, int64(5)).
			WillReturnRows(preorderRows(5, models.PreorderStatusConfirmed))

		preorder, err := store.ConfirmPreorder(context.Background(), 5, confirmedAt)

		require.NoError(t, err)
		assert.Equal(t, models.PreorderStatusConfirmed, preorder.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("confirming twice is rejected", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE preorders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := store.ConfirmPreorder(context.Background(), 5, time.Now())

		assert.ErrorIs(t, err, ledger.ErrInvalidStateTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown preorder", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE preorders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := store.ConfirmPreorder(context.Background(), 99, time.Now())

		assert.ErrorIs(t, err, ledger.ErrPreorderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelPreorder(t *testing.T) {
	t.Run("open preorder is cancelled", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE preorders").
			WillReturnRows(preorderRows(5, models.PreorderStatusCancelled))

		preorder, err := store.CancelPreorder(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, models.PreorderStatusCancelled, preorder.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("picked up preorder stays terminal", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE preorders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := store.CancelPreorder(context.Background(), 5)

		assert.ErrorIs(t, err, ledger.ErrInvalidStateTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
