package service

import (
	"context"
	"fmt"
	"time"

	"loyalty-service/internal/broker"
	"loyalty-service/internal/models"
	"loyalty-service/internal/store"
	"loyalty-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// milestones are the lifetime-points thresholds that earn a badge.
var milestones = []struct {
	Kind      string
	Threshold int64
}{
	{"BRONZE_COLLECTOR", 100},
	{"SILVER_COLLECTOR", 500},
	{"GOLD_COLLECTOR", 1000},
}

// BadgeService evaluates achievements from award events. It runs behind
// the broker, decoupled from the award path: a failure here never touches
// the ledger.
type BadgeService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewBadgeService creates a new badge service
func NewBadgeService(store *store.Store, eventPublisher *broker.EventPublisher) *BadgeService {
	return &BadgeService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// HandlePointsAwarded evaluates milestone badges for one award event.
// Events are deduplicated through the processed_events table, so redelivery
// by the broker cannot grant twice.
func (s *BadgeService) HandlePointsAwarded(ctx context.Context, event *models.PointsAwardedEvent) error {
	ctx, span := util.StartSpan(ctx, "BadgeService.HandlePointsAwarded")
	defer span.End()

	processed, err := s.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	for _, m := range milestones {
		if event.NewTotal < m.Threshold {
			continue
		}

		granted, err := s.store.GrantBadge(ctx, event.CustomerID, m.Kind)
		if err != nil {
			return fmt.Errorf("failed to grant badge: %w", err)
		}
		if !granted {
			continue
		}

		util.BadgesGrantedTotal.Inc()
		s.logger.Info("Badge granted",
			zap.Int64("customer_id", event.CustomerID),
			zap.String("kind", m.Kind))

		badgeEvent := &models.BadgeGrantedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeBadgeGranted,
				Timestamp: time.Now(),
			},
			CustomerID: event.CustomerID,
			Kind:       m.Kind,
		}
		if err := s.eventPublisher.PublishBadgeGranted(ctx, badgeEvent); err != nil {
			s.logger.Error("Failed to publish BadgeGranted event", zap.Error(err))
		}
	}

	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}

// ListBadges retrieves a customer's badges
func (s *BadgeService) ListBadges(ctx context.Context, customerID int64) ([]models.Badge, error) {
	return s.store.GetBadgesByCustomer(ctx, customerID)
}
