package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"loyalty-service/internal/ledger"

	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInvalidQuantity, http.StatusBadRequest},
		{ledger.ErrInvalidSetting, http.StatusBadRequest},
		{ledger.ErrCustomerNotFound, http.StatusNotFound},
		{ledger.ErrRewardNotFound, http.StatusNotFound},
		{ledger.ErrOfferNotFound, http.StatusNotFound},
		{ledger.ErrOrderNotFound, http.StatusNotFound},
		{ledger.ErrPreorderNotFound, http.StatusNotFound},
		{ledger.ErrProductNotFound, http.StatusNotFound},
		{ledger.ErrCodeNotFound, http.StatusNotFound},
		{ledger.ErrDuplicateOperation, http.StatusConflict},
		{ledger.ErrInsufficientPoints, http.StatusConflict},
		{ledger.ErrSoldOut, http.StatusConflict},
		{ledger.ErrOfferNotAvailable, http.StatusConflict},
		{ledger.ErrRewardInactive, http.StatusConflict},
		{ledger.ErrProductInactive, http.StatusConflict},
		{ledger.ErrInvalidStateTransition, http.StatusConflict},
		{ledger.ErrAlreadyFulfilled, http.StatusConflict},
		{errors.New("database gone"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestStatusForWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("reserving offer: %w", ledger.ErrSoldOut)
	assert.Equal(t, http.StatusConflict, statusForError(wrapped))
}
