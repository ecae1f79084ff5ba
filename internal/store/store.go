package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection (used by sqlmock tests)
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetCustomerByID retrieves a customer by ID
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetOrCreateCustomer provisions a customer row on first authenticated
// access. The upsert keeps concurrent first logins from racing.
func (s *Store) GetOrCreateCustomer(ctx context.Context, externalID, name string) (*models.Customer, error) {
	var customer models.Customer
	query := `
		INSERT INTO customers (external_id, name)
		VALUES ($1, $2)
		ON CONFLICT (external_id) DO UPDATE SET updated_at = NOW()
		RETURNING *`

	if err := s.db.GetContext(ctx, &customer, query, externalID, name); err != nil {
		return nil, fmt.Errorf("failed to provision customer: %w", err)
	}
	return &customer, nil
}

// GetSetting retrieves a setting value by key
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = $1", key)
	if err == sql.ErrNoRows {
		return "", sql.ErrNoRows
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// UpsertSetting creates or updates a setting
func (s *Store) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
		key, value)
	return err
}

// conversionRateTx reads the points-per-currency rate inside the given
// transaction so the rate and the balance update commit as one unit.
// A missing or unusable setting row falls back to the default rate.
func conversionRateTx(ctx context.Context, tx *sqlx.Tx, defaultRate decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := tx.GetContext(ctx, &raw,
		"SELECT value FROM settings WHERE key = $1", models.SettingPointsPerCurrency)
	if err == sql.ErrNoRows {
		return defaultRate, nil
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to read conversion rate: %w", err)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil || !ledger.ValidRate(rate) {
		return defaultRate, nil
	}
	return rate, nil
}

// GetRewardByID retrieves a reward by ID
func (s *Store) GetRewardByID(ctx context.Context, id int64) (*models.Reward, error) {
	var reward models.Reward
	err := s.db.GetContext(ctx, &reward, "SELECT * FROM rewards WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrRewardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// GetActiveRewards retrieves all active rewards
func (s *Store) GetActiveRewards(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.db.SelectContext(ctx, &rewards,
		"SELECT * FROM rewards WHERE active ORDER BY points_required")
	return rewards, err
}

// CreateReward creates a new reward
func (s *Store) CreateReward(ctx context.Context, reward *models.Reward) error {
	query := `
		INSERT INTO rewards (name, description, points_required, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, reward, query,
		reward.Name, reward.Description, reward.PointsRequired, reward.Active)
}

// UpdateReward updates an existing reward
func (s *Store) UpdateReward(ctx context.Context, reward *models.Reward) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rewards
		SET name = $1, description = $2, points_required = $3, active = $4, updated_at = NOW()
		WHERE id = $5`,
		reward.Name, reward.Description, reward.PointsRequired, reward.Active, reward.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ledger.ErrRewardNotFound
	}
	return nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

// GrantBadge inserts a badge grant; duplicate grants are ignored
func (s *Store) GrantBadge(ctx context.Context, customerID int64, kind string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO badges (customer_id, kind)
		VALUES ($1, $2)
		ON CONFLICT (customer_id, kind) DO NOTHING`,
		customerID, kind)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetBadgesByCustomer retrieves all badges for a customer
func (s *Store) GetBadgesByCustomer(ctx context.Context, customerID int64) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.db.SelectContext(ctx, &badges,
		"SELECT * FROM badges WHERE customer_id = $1 ORDER BY granted_at", customerID)
	return badges, err
}
