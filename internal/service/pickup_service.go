package service

import (
	"context"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
	"loyalty-service/internal/store"
	"loyalty-service/internal/util"

	"go.uber.org/zap"
)

// PickupService advances claims, orders and preorders through their
// staff-triggered transitions. Every transition is a guarded update in the
// store; nothing here re-checks state it could race on.
type PickupService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPickupService creates a new pickup service
func NewPickupService(store *store.Store) *PickupService {
	return &PickupService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// TransitionResult reports which entity a scanned code resolved to and the
// status it now carries.
type TransitionResult struct {
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	NewStatus  string `json:"new_status"`
}

// TransitionByCode resolves a scanned code to its entity and applies the
// matching pickup transition: claims become fulfilled, reserved orders
// become picked up. Unknown codes yield CodeNotFound.
func (s *PickupService) TransitionByCode(ctx context.Context, code string) (*TransitionResult, error) {
	ctx, span := util.StartSpan(ctx, "PickupService.TransitionByCode")
	defer span.End()

	switch ledger.KindOfCode(code) {
	case ledger.CodeKindClaim:
		claim, err := s.store.FulfillClaimByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		util.PickupTransitionsTotal.WithLabelValues("claim", claim.Status).Inc()
		s.logger.Info("Claim fulfilled",
			zap.Int64("claim_id", claim.ID),
			zap.Int64("customer_id", claim.CustomerID))
		return &TransitionResult{
			EntityType: "claim",
			EntityID:   claim.ID,
			NewStatus:  claim.Status,
		}, nil

	case ledger.CodeKindOrder:
		order, err := s.store.PickupOrderByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		util.PickupTransitionsTotal.WithLabelValues("order", order.Status).Inc()
		s.logger.Info("Order picked up",
			zap.Int64("order_id", order.ID),
			zap.Int64("customer_id", order.CustomerID))
		return &TransitionResult{
			EntityType: "order",
			EntityID:   order.ID,
			NewStatus:  order.Status,
		}, nil

	default:
		return nil, ledger.ErrCodeNotFound
	}
}

// MarkOrderPickedUp completes a reserved order by ID (admin dashboard path).
func (s *PickupService) MarkOrderPickedUp(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.store.MarkOrderPickedUp(ctx, orderID)
	if err != nil {
		return nil, err
	}
	util.PickupTransitionsTotal.WithLabelValues("order", order.Status).Inc()
	return order, nil
}

// ConfirmPreorder sets the staff-confirmed pickup time on a requested preorder.
func (s *PickupService) ConfirmPreorder(ctx context.Context, preorderID int64, confirmedAt time.Time) (*models.Preorder, error) {
	preorder, err := s.store.ConfirmPreorder(ctx, preorderID, confirmedAt)
	if err != nil {
		return nil, err
	}
	util.PickupTransitionsTotal.WithLabelValues("preorder", preorder.Status).Inc()
	s.logger.Info("Preorder confirmed",
		zap.Int64("preorder_id", preorderID),
		zap.Time("confirmed_at", confirmedAt))
	return preorder, nil
}

// MarkPreorderReady moves a confirmed preorder to ready.
func (s *PickupService) MarkPreorderReady(ctx context.Context, preorderID int64) (*models.Preorder, error) {
	preorder, err := s.store.MarkPreorderReady(ctx, preorderID)
	if err != nil {
		return nil, err
	}
	util.PickupTransitionsTotal.WithLabelValues("preorder", preorder.Status).Inc()
	return preorder, nil
}

// MarkPreorderPickedUp completes a ready preorder.
func (s *PickupService) MarkPreorderPickedUp(ctx context.Context, preorderID int64) (*models.Preorder, error) {
	preorder, err := s.store.MarkPreorderPickedUp(ctx, preorderID)
	if err != nil {
		return nil, err
	}
	util.PickupTransitionsTotal.WithLabelValues("preorder", preorder.Status).Inc()
	return preorder, nil
}

// CancelPreorder cancels any non-terminal preorder.
func (s *PickupService) CancelPreorder(ctx context.Context, preorderID int64) (*models.Preorder, error) {
	preorder, err := s.store.CancelPreorder(ctx, preorderID)
	if err != nil {
		return nil, err
	}
	util.PickupTransitionsTotal.WithLabelValues("preorder", preorder.Status).Inc()
	s.logger.Info("Preorder cancelled", zap.Int64("preorder_id", preorderID))
	return preorder, nil
}
