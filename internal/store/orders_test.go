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

func offerRows(limitTotal, soldCount int, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "image_url", "price", "limit_total",
		"sold_count", "starts_at", "ends_at", "active", "created_at", "updated_at",
	}).AddRow(int64(3), "Weekend Box", "Limited pastry box", "", "9.50",
		limitTotal, soldCount, nil, nil, active, time.Now(), time.Now())
}

func orderRows(id int64, quantity int, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "offer_id", "quantity", "pickup_code", "status", "created_at", "picked_up_at",
	}).AddRow(id, int64(1), int64(3), quantity, "PCK-ABC123", status, time.Now(), nil)
}

func TestReserveOffer(t *testing.T) {
	t.Run("reserves within the stock limit", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM offers WHERE id").
			WithArgs(int64(3)).
			WillReturnRows(offerRows(10, 8, true))
		mock.ExpectQuery("UPDATE offers").
			WithArgs(2, int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(0))
		mock.ExpectQuery("INSERT INTO orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
		mock.ExpectCommit()

		result, err := store.ReserveOffer(context.Background(), 1, 3, 2)

		require.NoError(t, err)
		assert.Equal(t, int64(21), result.OrderID)
		assert.Equal(t, 0, result.Remaining)
		assert.Contains(t, result.PickupCode, ledger.PickupCodePrefix)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("oversell is rejected by the conditional update", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM offers WHERE id").
			WithArgs(int64(3)).
			WillReturnRows(offerRows(10, 9, true))
		mock.ExpectQuery("UPDATE offers").
			WithArgs(2, int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
		mock.ExpectRollback()

		_, err := store.ReserveOffer(context.Background(), 1, 3, 2)

		assert.ErrorIs(t, err, ledger.ErrSoldOut)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive offer is not available", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM offers WHERE id").
			WithArgs(int64(3)).
			WillReturnRows(offerRows(10, 0, false))
		mock.ExpectRollback()

		_, err := store.ReserveOffer(context.Background(), 1, 3, 1)

		assert.ErrorIs(t, err, ledger.ErrOfferNotAvailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown offer", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM offers WHERE id").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := store.ReserveOffer(context.Background(), 1, 99, 1)

		assert.ErrorIs(t, err, ledger.ErrOfferNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("cancel restores stock exactly once", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders").
			WithArgs(models.OrderStatusCancelled, int64(21), models.OrderStatusReserved).
			WillReturnRows(orderRows(21, 2, models.OrderStatusCancelled))
		mock.ExpectExec("UPDATE offers").
			WithArgs(2, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		order, err := store.CancelOrder(context.Background(), 21)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancel of a picked up order is rejected", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(21)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := store.CancelOrder(context.Background(), 21)

		assert.ErrorIs(t, err, ledger.ErrInvalidStateTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := store.CancelOrder(context.Background(), 99)

		assert.ErrorIs(t, err, ledger.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPickupOrderByCode(t *testing.T) {
	t.Run("reserved order is picked up", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE orders").
			WithArgs(models.OrderStatusPickedUp, "PCK-ABC123", models.OrderStatusReserved).
			WillReturnRows(orderRows(21, 2, models.OrderStatusPickedUp))

		order, err := store.PickupOrderByCode(context.Background(), "PCK-ABC123")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPickedUp, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled order cannot be picked up", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("PCK-ABC123").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := store.PickupOrderByCode(context.Background(), "PCK-ABC123")

		assert.ErrorIs(t, err, ledger.ErrInvalidStateTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown code", func(t *testing.T) {
		store, mock := setupTestStore(t)

		mock.ExpectQuery("UPDATE orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("PCK-NOPE").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := store.PickupOrderByCode(context.Background(), "PCK-NOPE")

		assert.ErrorIs(t, err, ledger.ErrCodeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
