package service

import (
	"context"
	"time"

	"loyalty-service/internal/broker"
	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
	"loyalty-service/internal/redisclient"
	"loyalty-service/internal/store"
	"loyalty-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AwardService is the single code path for crediting points. The admin
// quick-add endpoint and the scan flow both go through AwardPoints, so
// there is exactly one mutation site for the spendable balance increment.
type AwardService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	defaultRate    decimal.Decimal
	logger         *zap.Logger
}

// NewAwardService creates a new award service
func NewAwardService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	defaultRate decimal.Decimal,
) *AwardService {
	return &AwardService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		defaultRate:    defaultRate,
		logger:         util.GetLogger(),
	}
}

// AwardRequest represents a request to credit points for a purchase
type AwardRequest struct {
	CustomerID  int64           `json:"customer_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ScanToken   string          `json:"scan_token,omitempty"`
}

// AwardResponse represents the outcome of an accepted award
type AwardResponse struct {
	PointsAwarded int64 `json:"points_awarded"`
	NewBalance    int64 `json:"new_balance"`
	NewTotal      int64 `json:"new_total"`
}

// AwardPoints converts a purchase amount into points and credits the
// customer. The store transaction carries the real idempotency guard; the
// Redis token cache only short-circuits known duplicates early.
func (s *AwardService) AwardPoints(ctx context.Context, req *AwardRequest) (*AwardResponse, error) {
	ctx, span := util.StartSpan(ctx, "AwardService.AwardPoints")
	defer span.End()

	start := time.Now()
	defer func() {
		util.AwardLatency.Observe(time.Since(start).Seconds())
	}()

	if !req.Amount.IsPositive() {
		util.AwardsRejectedTotal.WithLabelValues("invalid_amount").Inc()
		return nil, ledger.ErrInvalidAmount
	}

	if req.ScanToken == "" {
		req.ScanToken = uuid.New().String()
	}

	if cached, err := s.redis.IsScanTokenCached(ctx, req.ScanToken); err == nil && cached {
		util.AwardsRejectedTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("Duplicate award request detected in token cache",
			zap.String("scan_token", req.ScanToken),
			zap.Int64("customer_id", req.CustomerID))
		return nil, ledger.ErrDuplicateOperation
	}

	result, err := s.store.AwardPoints(ctx, req.CustomerID, req.Amount, req.Description, req.ScanToken, s.defaultRate)
	if err != nil {
		switch err {
		case ledger.ErrDuplicateOperation:
			util.AwardsRejectedTotal.WithLabelValues("duplicate").Inc()
		case ledger.ErrCustomerNotFound:
			util.AwardsRejectedTotal.WithLabelValues("customer_not_found").Inc()
		default:
			util.AwardsRejectedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.AwardsTotal.Inc()
	util.PointsAwardedTotal.Add(float64(result.PointsAwarded))
	s.logger.Info("Points awarded",
		zap.Int64("customer_id", req.CustomerID),
		zap.Int64("points", result.PointsAwarded),
		zap.Int64("new_balance", result.NewBalance))

	if err := s.redis.CacheScanToken(ctx, req.ScanToken, 24*time.Hour); err != nil {
		s.logger.Warn("Failed to cache scan token", zap.Error(err))
	}

	event := &models.PointsAwardedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePointsAwarded,
			Timestamp: time.Now(),
		},
		CustomerID:    req.CustomerID,
		TransactionID: result.TransactionID,
		PointsAwarded: result.PointsAwarded,
		NewBalance:    result.NewBalance,
		NewTotal:      result.NewTotal,
		Amount:        req.Amount.String(),
	}

	// badge evaluation is best effort and never rolls back the award
	if err := s.eventPublisher.PublishPointsAwarded(ctx, event); err != nil {
		s.logger.Error("Failed to publish PointsAwarded event", zap.Error(err))
	}

	return &AwardResponse{
		PointsAwarded: result.PointsAwarded,
		NewBalance:    result.NewBalance,
		NewTotal:      result.NewTotal,
	}, nil
}

// GetBalance retrieves a customer's balance and ledger history
func (s *AwardService) GetBalance(ctx context.Context, customerID int64) (*models.Customer, []models.Transaction, error) {
	customer, err := s.store.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	transactions, err := s.store.GetTransactionsByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	return customer, transactions, nil
}

// SetConversionRate updates the points-per-currency setting used by
// subsequent awards. Each award reads the rate in effect at commit time.
func (s *AwardService) SetConversionRate(ctx context.Context, rate decimal.Decimal) error {
	if !ledger.ValidRate(rate) {
		return ledger.ErrInvalidSetting
	}
	return s.store.UpsertSetting(ctx, models.SettingPointsPerCurrency, rate.String())
}
