package service

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

func claimResultRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "reward_id", "code", "status", "points_spent",
		"reward_name", "reward_description", "created_at", "fulfilled_at",
	}).AddRow(int64(11), int64(1), int64(7), "RWD-ABC123", status, int64(50),
		"Free Coffee", "", time.Now(), time.Now())
}

func orderResultRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "offer_id", "quantity", "pickup_code", "status", "created_at", "picked_up_at",
	}).AddRow(int64(21), int64(1), int64(3), 2, "PCK-ABC123", status, time.Now(), nil)
}

func TestTransitionByCodeUnknownPrefix(t *testing.T) {
	svc := NewPickupService(nil)

	_, err := svc.TransitionByCode(context.Background(), "XYZ-UNKNOWN")

	assert.ErrorIs(t, err, ledger.ErrCodeNotFound)
}

func TestTransitionByCodeClaim(t *testing.T) {
	st, mock := setupMockedStore(t)
	svc := NewPickupService(st)

	mock.ExpectQuery("UPDATE claims").
		WillReturnRows(claimResultRows(models.ClaimStatusFulfilled))

	result, err := svc.TransitionByCode(context.Background(), "RWD-ABC123")

	require.NoError(t, err)
	assert.Equal(t, "claim", result.EntityType)
	assert.Equal(t, models.ClaimStatusFulfilled, result.NewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionByCodeOrder(t *testing.T) {
	st, mock := setupMockedStore(t)
	svc := NewPickupService(st)

	mock.ExpectQuery("UPDATE orders").
		WillReturnRows(orderResultRows(models.OrderStatusPickedUp))

	result, err := svc.TransitionByCode(context.Background(), "PCK-ABC123")

	require.NoError(t, err)
	assert.Equal(t, "order", result.EntityType)
	assert.Equal(t, models.OrderStatusPickedUp, result.NewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
