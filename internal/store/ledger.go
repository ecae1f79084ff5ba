package store

import (
	"context"
	"database/sql"
	"fmt"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"

	"github.com/shopspring/decimal"
)

// AwardResult reports the outcome of a committed award.
type AwardResult struct {
	TransactionID int64
	PointsAwarded int64
	NewBalance    int64
	NewTotal      int64
}

// RedeemResult reports the outcome of a committed redemption.
type RedeemResult struct {
	ClaimID     int64
	Code        string
	PointsSpent int64
	NewBalance  int64
}

// AwardPoints credits a customer for a purchase as one transaction:
// rate read, audit insert and balance update commit together or not at
// all. The unique index on scan_token is the idempotency guard; a reused
// token aborts before any balance change.
func (s *Store) AwardPoints(ctx context.Context, customerID int64, amount decimal.Decimal, description, scanToken string, defaultRate decimal.Decimal) (*AwardResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rate, err := conversionRateTx(ctx, tx, defaultRate)
	if err != nil {
		return nil, err
	}

	points := ledger.PointsForAmount(amount, rate)

	var txID int64
	err = tx.GetContext(ctx, &txID, `
		INSERT INTO transactions (customer_id, delta, amount, description, type, scan_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		customerID, points, amount, description, models.TransactionTypePurchase, scanToken)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ledger.ErrDuplicateOperation
		}
		if isForeignKeyViolation(err) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	var balance struct {
		Points      int64 `db:"points"`
		TotalPoints int64 `db:"total_points"`
	}
	err = tx.GetContext(ctx, &balance, `
		UPDATE customers
		SET points = points + $1, total_points = total_points + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING points, total_points`,
		points, customerID)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to credit customer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &AwardResult{
		TransactionID: txID,
		PointsAwarded: points,
		NewBalance:    balance.Points,
		NewTotal:      balance.TotalPoints,
	}, nil
}

// RedeemReward debits the reward's cost and issues a claim atomically.
// The conditional debit only touches points, never total_points. A debit
// without a claim, or a claim without a debit, cannot be observed.
func (s *Store) RedeemReward(ctx context.Context, customerID, rewardID int64) (*RedeemResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var reward models.Reward
	err = tx.GetContext(ctx, &reward, "SELECT * FROM rewards WHERE id = $1", rewardID)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrRewardNotFound
	}
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, ledger.ErrRewardInactive
	}

	var newBalance int64
	err = tx.GetContext(ctx, &newBalance, `
		UPDATE customers
		SET points = points - $1, updated_at = NOW()
		WHERE id = $2 AND points >= $1
		RETURNING points`,
		reward.PointsRequired, customerID)
	if err == sql.ErrNoRows {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", customerID); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, ledger.ErrInsufficientPoints
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit customer: %w", err)
	}

	code, err := ledger.NewClaimCode()
	if err != nil {
		return nil, err
	}

	var claimID int64
	err = tx.GetContext(ctx, &claimID, `
		INSERT INTO claims (customer_id, reward_id, code, status, points_spent, reward_name, reward_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		customerID, rewardID, code, models.ClaimStatusIssued,
		reward.PointsRequired, reward.Name, reward.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to insert claim: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (customer_id, delta, description, type, claim_id)
		VALUES ($1, $2, $3, $4, $5)`,
		customerID, -reward.PointsRequired, reward.Name, models.TransactionTypeRedemption, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &RedeemResult{
		ClaimID:     claimID,
		Code:        code,
		PointsSpent: reward.PointsRequired,
		NewBalance:  newBalance,
	}, nil
}

// FulfillClaimByCode marks an issued claim fulfilled. The status guard in
// the UPDATE makes a second scan of the same code a no-op at the row level;
// the follow-up read distinguishes AlreadyFulfilled from an unknown code.
func (s *Store) FulfillClaimByCode(ctx context.Context, code string) (*models.Claim, error) {
	var claim models.Claim
	err := s.db.GetContext(ctx, &claim, `
		UPDATE claims
		SET status = $1, fulfilled_at = NOW()
		WHERE code = $2 AND status = $3
		RETURNING *`,
		models.ClaimStatusFulfilled, code, models.ClaimStatusIssued)
	if err == nil {
		return &claim, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var status string
	err = s.db.GetContext(ctx, &status, "SELECT status FROM claims WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return nil, ledger.ErrAlreadyFulfilled
}

// GetClaimByID retrieves a claim by ID
func (s *Store) GetClaimByID(ctx context.Context, id int64) (*models.Claim, error) {
	var claim models.Claim
	err := s.db.GetContext(ctx, &claim, "SELECT * FROM claims WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// GetClaimsByCustomer retrieves claims for a customer, newest first
func (s *Store) GetClaimsByCustomer(ctx context.Context, customerID int64) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.SelectContext(ctx, &claims,
		"SELECT * FROM claims WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return claims, err
}

// GetTransactionsByCustomer retrieves ledger entries for a customer, newest first
func (s *Store) GetTransactionsByCustomer(ctx context.Context, customerID int64) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.SelectContext(ctx, &transactions,
		"SELECT * FROM transactions WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return transactions, err
}
