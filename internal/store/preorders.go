package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
)

// PreorderLine is one validated line of a new preorder.
type PreorderLine struct {
	ProductID   int64
	ProductName string
	Quantity    int
}

// CreatePreorder inserts a preorder with its line items in one transaction.
// Product names arrive denormalized from the caller so later catalog edits
// do not rewrite preorder history.
func (s *Store) CreatePreorder(ctx context.Context, customerID int64, desiredAt *time.Time, lines []PreorderLine) (*models.Preorder, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var preorder models.Preorder
	err = tx.GetContext(ctx, &preorder, `
		INSERT INTO preorders (customer_id, status, desired_at)
		VALUES ($1, $2, $3)
		RETURNING *`,
		customerID, models.PreorderStatusRequested, desiredAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to insert preorder: %w", err)
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO preorder_items (preorder_id, product_id, product_name, quantity)
			VALUES ($1, $2, $3, $4)`,
			preorder.ID, line.ProductID, line.ProductName, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to insert preorder item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &preorder, nil
}

// advancePreorder runs one guarded status transition. The WHERE clause on
// the current status is the exactly-once guard; the follow-up read turns a
// zero-row update into the right error.
func (s *Store) advancePreorder(ctx context.Context, query string, args ...interface{}) (*models.Preorder, error) {
	var preorder models.Preorder
	err := s.db.GetContext(ctx, &preorder, query, args...)
	if err == nil {
		return &preorder, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	id := args[len(args)-1]
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM preorders WHERE id = $1)", id); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ledger.ErrPreorderNotFound
	}
	return nil, ledger.ErrInvalidStateTransition
}

// ConfirmPreorder moves REQUESTED to CONFIRMED and records the staff-chosen
// pickup time.
func (s *Store) ConfirmPreorder(ctx context.Context, preorderID int64, confirmedAt time.Time) (*models.Preorder, error) {
	return s.advancePreorder(ctx, `
		UPDATE preorders
		SET status = $1, confirmed_at = $2
		WHERE status = $3 AND id = $4
		RETURNING *`,
		models.PreorderStatusConfirmed, confirmedAt, models.PreorderStatusRequested, preorderID)
}

// MarkPreorderReady moves CONFIRMED to READY.
func (s *Store) MarkPreorderReady(ctx context.Context, preorderID int64) (*models.Preorder, error) {
	return s.advancePreorder(ctx, `
		UPDATE preorders
		SET status = $1, ready_at = NOW()
		WHERE status = $2 AND id = $3
		RETURNING *`,
		models.PreorderStatusReady, models.PreorderStatusConfirmed, preorderID)
}

// MarkPreorderPickedUp moves READY to PICKED_UP.
func (s *Store) MarkPreorderPickedUp(ctx context.Context, preorderID int64) (*models.Preorder, error) {
	return s.advancePreorder(ctx, `
		UPDATE preorders
		SET status = $1, picked_up_at = NOW()
		WHERE status = $2 AND id = $3
		RETURNING *`,
		models.PreorderStatusPickedUp, models.PreorderStatusReady, preorderID)
}

// CancelPreorder cancels any non-terminal preorder.
func (s *Store) CancelPreorder(ctx context.Context, preorderID int64) (*models.Preorder, error) {
	return s.advancePreorder(ctx, `
		UPDATE preorders
		SET status = $1
		WHERE status IN ($2, $3, $4) AND id = $5
		RETURNING *`,
		models.PreorderStatusCancelled,
		models.PreorderStatusRequested, models.PreorderStatusConfirmed, models.PreorderStatusReady,
		preorderID)
}

// GetPreorderByID retrieves a preorder by ID
func (s *Store) GetPreorderByID(ctx context.Context, id int64) (*models.Preorder, error) {
	var preorder models.Preorder
	err := s.db.GetContext(ctx, &preorder, "SELECT * FROM preorders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrPreorderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &preorder, nil
}

// GetPreorderItems retrieves all line items for a preorder
func (s *Store) GetPreorderItems(ctx context.Context, preorderID int64) ([]models.PreorderItem, error) {
	var items []models.PreorderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM preorder_items WHERE preorder_id = $1 ORDER BY id", preorderID)
	return items, err
}

// GetPreordersByCustomer retrieves preorders for a customer, newest first
func (s *Store) GetPreordersByCustomer(ctx context.Context, customerID int64) ([]models.Preorder, error) {
	var preorders []models.Preorder
	err := s.db.SelectContext(ctx, &preorders,
		"SELECT * FROM preorders WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return preorders, err
}

// GetOpenPreorders retrieves all non-terminal preorders for the staff queue
func (s *Store) GetOpenPreorders(ctx context.Context) ([]models.Preorder, error) {
	var preorders []models.Preorder
	err := s.db.SelectContext(ctx, &preorders, `
		SELECT * FROM preorders
		WHERE status IN ($1, $2, $3)
		ORDER BY created_at`,
		models.PreorderStatusRequested, models.PreorderStatusConfirmed, models.PreorderStatusReady)
	return preorders, err
}
