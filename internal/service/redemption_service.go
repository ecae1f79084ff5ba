package service

import (
	"context"
	"time"

	"loyalty-service/internal/broker"
	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
	"loyalty-service/internal/store"
	"loyalty-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedemptionService exchanges points for rewards.
type RedemptionService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(store *store.Store, eventPublisher *broker.EventPublisher) *RedemptionService {
	return &RedemptionService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RedeemResponse represents the outcome of an accepted redemption
type RedeemResponse struct {
	ClaimID    int64  `json:"claim_id"`
	ClaimCode  string `json:"claim_code"`
	NewBalance int64  `json:"new_balance"`
}

// RedeemReward debits the reward cost and issues a single-use claim. Debit,
// claim and audit entry commit as one store transaction.
func (s *RedemptionService) RedeemReward(ctx context.Context, customerID, rewardID int64) (*RedeemResponse, error) {
	ctx, span := util.StartSpan(ctx, "RedemptionService.RedeemReward")
	defer span.End()

	result, err := s.store.RedeemReward(ctx, customerID, rewardID)
	if err != nil {
		switch err {
		case ledger.ErrInsufficientPoints:
			util.RedemptionsRejectedTotal.WithLabelValues("insufficient_points").Inc()
		case ledger.ErrRewardInactive:
			util.RedemptionsRejectedTotal.WithLabelValues("reward_inactive").Inc()
		case ledger.ErrRewardNotFound:
			util.RedemptionsRejectedTotal.WithLabelValues("reward_not_found").Inc()
		default:
			util.RedemptionsRejectedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.RedemptionsTotal.Inc()
	s.logger.Info("Reward redeemed",
		zap.Int64("customer_id", customerID),
		zap.Int64("reward_id", rewardID),
		zap.Int64("claim_id", result.ClaimID),
		zap.Int64("points_spent", result.PointsSpent))

	event := &models.RewardRedeemedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRewardRedeemed,
			Timestamp: time.Now(),
		},
		CustomerID:  customerID,
		ClaimID:     result.ClaimID,
		RewardID:    rewardID,
		PointsSpent: result.PointsSpent,
	}

	if err := s.eventPublisher.PublishRewardRedeemed(ctx, event); err != nil {
		s.logger.Error("Failed to publish RewardRedeemed event", zap.Error(err))
	}

	return &RedeemResponse{
		ClaimID:    result.ClaimID,
		ClaimCode:  result.Code,
		NewBalance: result.NewBalance,
	}, nil
}

// ListRewards retrieves the active reward catalog
func (s *RedemptionService) ListRewards(ctx context.Context) ([]models.Reward, error) {
	return s.store.GetActiveRewards(ctx)
}

// ListClaims retrieves a customer's claims
func (s *RedemptionService) ListClaims(ctx context.Context, customerID int64) ([]models.Claim, error) {
	return s.store.GetClaimsByCustomer(ctx, customerID)
}

// CreateReward adds a reward to the catalog
func (s *RedemptionService) CreateReward(ctx context.Context, reward *models.Reward) error {
	return s.store.CreateReward(ctx, reward)
}

// UpdateReward updates a catalog reward. Issued claims keep their snapshot
// of the reward name and description.
func (s *RedemptionService) UpdateReward(ctx context.Context, reward *models.Reward) error {
	return s.store.UpdateReward(ctx, reward)
}
