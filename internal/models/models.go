package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer holds the point balances for one loyalty member.
// Points is the spendable balance; TotalPoints tracks gross lifetime
// earnings and is never reduced by redemptions.
type Customer struct {
	ID          int64     `db:"id" json:"id"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	Name        string    `db:"name" json:"name"`
	Points      int64     `db:"points" json:"points"`
	TotalPoints int64     `db:"total_points" json:"total_points"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is one immutable ledger entry. The sum of Delta over all
// transactions of a customer equals that customer's current Points.
type Transaction struct {
	ID          int64               `db:"id" json:"id"`
	CustomerID  int64               `db:"customer_id" json:"customer_id"`
	Delta       int64               `db:"delta" json:"delta"`
	Amount      decimal.NullDecimal `db:"amount" json:"amount,omitempty"`
	Description string              `db:"description" json:"description"`
	Type        string              `db:"type" json:"type"`
	ClaimID     *int64              `db:"claim_id" json:"claim_id,omitempty"`
	ScanToken   *string             `db:"scan_token" json:"scan_token,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// Reward is a catalog item purchasable with points.
type Reward struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	PointsRequired int64     `db:"points_required" json:"points_required"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Claim is one redemption instance. Reward name, description and cost are
// snapshotted so later reward edits do not rewrite redemption history.
type Claim struct {
	ID                int64      `db:"id" json:"id"`
	CustomerID        int64      `db:"customer_id" json:"customer_id"`
	RewardID          int64      `db:"reward_id" json:"reward_id"`
	Code              string     `db:"code" json:"code"`
	Status            string     `db:"status" json:"status"`
	PointsSpent       int64      `db:"points_spent" json:"points_spent"`
	RewardName        string     `db:"reward_name" json:"reward_name"`
	RewardDescription string     `db:"reward_description" json:"reward_description"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	FulfilledAt       *time.Time `db:"fulfilled_at" json:"fulfilled_at,omitempty"`
}

// Offer is a limited-run purchasable item with a hard stock cap.
// Invariant: 0 <= SoldCount <= LimitTotal at all times.
type Offer struct {
	ID          int64           `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	Price       decimal.Decimal `db:"price" json:"price"`
	LimitTotal  int             `db:"limit_total" json:"limit_total"`
	SoldCount   int             `db:"sold_count" json:"sold_count"`
	StartsAt    *time.Time      `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time      `db:"ends_at" json:"ends_at,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Order is one reservation against an Offer.
type Order struct {
	ID         int64      `db:"id" json:"id"`
	CustomerID int64      `db:"customer_id" json:"customer_id"`
	OfferID    int64      `db:"offer_id" json:"offer_id"`
	Quantity   int        `db:"quantity" json:"quantity"`
	PickupCode string     `db:"pickup_code" json:"pickup_code"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	PickedUpAt *time.Time `db:"picked_up_at" json:"picked_up_at,omitempty"`
}

// Product is a catalog item orderable via preorder. Weight-based products
// carry a step size in grams; preorder quantities must be multiples of it.
type Product struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Unit      string          `db:"unit" json:"unit"`
	StepInt   int             `db:"step_int" json:"step_int"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Preorder is a staff-confirmed pickup request. Each timestamp is set
// exactly once by the matching status transition.
type Preorder struct {
	ID          int64      `db:"id" json:"id"`
	CustomerID  int64      `db:"customer_id" json:"customer_id"`
	Status      string     `db:"status" json:"status"`
	DesiredAt   *time.Time `db:"desired_at" json:"desired_at,omitempty"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	ReadyAt     *time.Time `db:"ready_at" json:"ready_at,omitempty"`
	PickedUpAt  *time.Time `db:"picked_up_at" json:"picked_up_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// PreorderItem is one line of a preorder with the product name denormalized.
type PreorderItem struct {
	ID          int64  `db:"id" json:"id"`
	PreorderID  int64  `db:"preorder_id" json:"preorder_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
}

// Setting is one row of the key-value configuration store.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Badge is one achievement granted to a customer by the badge worker.
type Badge struct {
	ID         int64     `db:"id" json:"id"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	Kind       string    `db:"kind" json:"kind"`
	GrantedAt  time.Time `db:"granted_at" json:"granted_at"`
}

// Transaction types
const (
	TransactionTypePurchase   = "PURCHASE"
	TransactionTypeRedemption = "REDEMPTION"
)

// Claim statuses
const (
	ClaimStatusIssued    = "ISSUED"
	ClaimStatusFulfilled = "FULFILLED"
)

// Order statuses
const (
	OrderStatusReserved  = "RESERVED"
	OrderStatusPickedUp  = "PICKED_UP"
	OrderStatusCancelled = "CANCELLED"
)

// Preorder statuses
const (
	PreorderStatusRequested = "REQUESTED"
	PreorderStatusConfirmed = "CONFIRMED"
	PreorderStatusReady     = "READY"
	PreorderStatusPickedUp  = "PICKED_UP"
	PreorderStatusCancelled = "CANCELLED"
)

// Product units
const (
	ProductUnitPiece  = "PIECE"
	ProductUnitWeight = "WEIGHT"
)

// Settings keys
const (
	SettingPointsPerCurrency = "points_per_currency"
)

// ProcessedEvent for consumer-side idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
