package models

import "time"

// Event types
const (
	EventTypePointsAwarded  = "POINTS_AWARDED"
	EventTypeRewardRedeemed = "REWARD_REDEEMED"
	EventTypeOfferReserved  = "OFFER_RESERVED"
	EventTypeBadgeGranted   = "BADGE_GRANTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PointsAwardedEvent published after a successful award commit. The badge
// worker consumes it; publish failures never roll back the award.
type PointsAwardedEvent struct {
	BaseEvent
	CustomerID    int64  `json:"customer_id"`
	TransactionID int64  `json:"transaction_id"`
	PointsAwarded int64  `json:"points_awarded"`
	NewBalance    int64  `json:"new_balance"`
	NewTotal      int64  `json:"new_total"`
	Amount        string `json:"amount"`
}

// RewardRedeemedEvent published after a successful redemption
type RewardRedeemedEvent struct {
	BaseEvent
	CustomerID  int64  `json:"customer_id"`
	ClaimID     int64  `json:"claim_id"`
	RewardID    int64  `json:"reward_id"`
	PointsSpent int64  `json:"points_spent"`
	RewardName  string `json:"reward_name"`
}

// OfferReservedEvent published after a successful reservation
type OfferReservedEvent struct {
	BaseEvent
	CustomerID int64 `json:"customer_id"`
	OfferID    int64 `json:"offer_id"`
	OrderID    int64 `json:"order_id"`
	Quantity   int   `json:"quantity"`
	Remaining  int   `json:"remaining"`
}

// BadgeGrantedEvent published by the badge worker after a grant
type BadgeGrantedEvent struct {
	BaseEvent
	CustomerID int64  `json:"customer_id"`
	Kind       string `json:"kind"`
}
