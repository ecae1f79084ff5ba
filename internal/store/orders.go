package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
)

// ReserveResult reports the outcome of a committed reservation.
type ReserveResult struct {
	OrderID    int64
	PickupCode string
	Remaining  int
}

// ReserveOffer sells quantity units of a limited offer. The oversell guard
// is the single conditional UPDATE: sold_count only moves when the
// post-increment value stays within limit_total, no matter how many callers
// race on the same row.
func (s *Store) ReserveOffer(ctx context.Context, customerID, offerID int64, quantity int) (*ReserveResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var offer models.Offer
	err = tx.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1", offerID)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !offer.Active ||
		(offer.StartsAt != nil && now.Before(*offer.StartsAt)) ||
		(offer.EndsAt != nil && now.After(*offer.EndsAt)) {
		return nil, ledger.ErrOfferNotAvailable
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining, `
		UPDATE offers
		SET sold_count = sold_count + $1, updated_at = NOW()
		WHERE id = $2 AND sold_count + $1 <= limit_total
		RETURNING limit_total - sold_count`,
		quantity, offerID)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrSoldOut
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	code, err := ledger.NewPickupCode()
	if err != nil {
		return nil, err
	}

	var orderID int64
	err = tx.GetContext(ctx, &orderID, `
		INSERT INTO orders (customer_id, offer_id, quantity, pickup_code, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		customerID, offerID, quantity, code, models.OrderStatusReserved)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &ReserveResult{
		OrderID:    orderID,
		PickupCode: code,
		Remaining:  remaining,
	}, nil
}

// CancelOrder cancels a reserved order and restores its stock. The status
// guard makes a repeated cancel fail instead of decrementing twice.
func (s *Store) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING *`,
		models.OrderStatusCancelled, orderID, models.OrderStatusReserved)
	if err == sql.ErrNoRows {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", orderID); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ledger.ErrOrderNotFound
		}
		return nil, ledger.ErrInvalidStateTransition
	}
	if err != nil {
		return nil, err
	}

	// sold_count never drops below zero even if stock was corrected by staff
	_, err = tx.ExecContext(ctx, `
		UPDATE offers
		SET sold_count = GREATEST(sold_count - $1, 0), updated_at = NOW()
		WHERE id = $2`,
		order.Quantity, order.OfferID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

// PickupOrderByCode marks a reserved order picked up via its scanned code.
func (s *Store) PickupOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders
		SET status = $1, picked_up_at = NOW()
		WHERE pickup_code = $2 AND status = $3
		RETURNING *`,
		models.OrderStatusPickedUp, code, models.OrderStatusReserved)
	if err == nil {
		return &order, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE pickup_code = $1)", code); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ledger.ErrCodeNotFound
	}
	return nil, ledger.ErrInvalidStateTransition
}

// MarkOrderPickedUp marks a reserved order picked up by ID (admin path).
func (s *Store) MarkOrderPickedUp(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders
		SET status = $1, picked_up_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING *`,
		models.OrderStatusPickedUp, orderID, models.OrderStatusReserved)
	if err == nil {
		return &order, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", orderID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ledger.ErrOrderNotFound
	}
	return nil, ledger.ErrInvalidStateTransition
}

// GetOfferByID retrieves an offer by ID
func (s *Store) GetOfferByID(ctx context.Context, id int64) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetActiveOffers retrieves all active offers
func (s *Store) GetActiveOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.SelectContext(ctx, &offers,
		"SELECT * FROM offers WHERE active ORDER BY created_at DESC")
	return offers, err
}

// CreateOffer creates a new offer
func (s *Store) CreateOffer(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (title, description, image_url, price, limit_total, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, sold_count, created_at, updated_at`

	return s.db.GetContext(ctx, offer, query,
		offer.Title, offer.Description, offer.ImageURL, offer.Price,
		offer.LimitTotal, offer.StartsAt, offer.EndsAt, offer.Active)
}

// UpdateOffer updates offer fields that staff may edit. sold_count is
// deliberately untouched: only the reservation engine moves it.
func (s *Store) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE offers
		SET title = $1, description = $2, image_url = $3, price = $4,
		    limit_total = $5, starts_at = $6, ends_at = $7, active = $8, updated_at = NOW()
		WHERE id = $9`,
		offer.Title, offer.Description, offer.ImageURL, offer.Price,
		offer.LimitTotal, offer.StartsAt, offer.EndsAt, offer.Active, offer.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ledger.ErrOfferNotFound
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByCustomer retrieves orders for a customer, newest first
func (s *Store) GetOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return orders, err
}
