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
	"go.uber.org/zap"
)

// OfferService sells limited-quantity offers. The database conditional
// update is the authority for the stock cap; the Redis gate only rejects
// obviously sold-out requests before they reach Postgres and is restored
// whenever the database declines a gated reservation.
type OfferService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *OfferService {
	return &OfferService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ReserveResponse represents the outcome of an accepted reservation
type ReserveResponse struct {
	OrderID    int64  `json:"order_id"`
	PickupCode string `json:"pickup_code"`
	Remaining  int    `json:"remaining"`
}

// ReserveOffer reserves quantity units of a limited offer for a customer.
func (s *OfferService) ReserveOffer(ctx context.Context, customerID, offerID int64, quantity int) (*ReserveResponse, error) {
	ctx, span := util.StartSpan(ctx, "OfferService.ReserveOffer")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReservationLatency.Observe(time.Since(start).Seconds())
	}()

	if quantity <= 0 {
		util.ReservationsRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, ledger.ErrInvalidQuantity
	}

	gated := false
	gate, err := s.redis.ReserveOfferStock(ctx, offerID, quantity)
	if err != nil {
		s.logger.Warn("Stock gate unavailable, using database only",
			zap.Int64("offer_id", offerID),
			zap.Error(err))
		util.StockGateHitsTotal.WithLabelValues("unavailable").Inc()
	} else {
		switch gate {
		case redisclient.GateSoldOut:
			util.StockGateHitsTotal.WithLabelValues("sold_out").Inc()
			util.ReservationsRejectedTotal.WithLabelValues("sold_out").Inc()
			return nil, ledger.ErrSoldOut
		case redisclient.GateGranted:
			util.StockGateHitsTotal.WithLabelValues("granted").Inc()
			gated = true
		default:
			util.StockGateHitsTotal.WithLabelValues("untracked").Inc()
		}
	}

	result, err := s.store.ReserveOffer(ctx, customerID, offerID, quantity)
	if err != nil {
		if gated {
			if relErr := s.redis.ReleaseOfferStock(ctx, offerID, quantity); relErr != nil {
				s.logger.Error("Failed to restore stock gate",
					zap.Int64("offer_id", offerID),
					zap.Error(relErr))
			}
		}
		switch err {
		case ledger.ErrSoldOut:
			util.ReservationsRejectedTotal.WithLabelValues("sold_out").Inc()
		case ledger.ErrOfferNotAvailable:
			util.ReservationsRejectedTotal.WithLabelValues("not_available").Inc()
		case ledger.ErrOfferNotFound:
			util.ReservationsRejectedTotal.WithLabelValues("not_found").Inc()
		default:
			util.ReservationsRejectedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.ReservationsTotal.Inc()
	s.logger.Info("Offer reserved",
		zap.Int64("customer_id", customerID),
		zap.Int64("offer_id", offerID),
		zap.Int64("order_id", result.OrderID),
		zap.Int("remaining", result.Remaining))

	event := &models.OfferReservedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOfferReserved,
			Timestamp: time.Now(),
		},
		CustomerID: customerID,
		OfferID:    offerID,
		OrderID:    result.OrderID,
		Quantity:   quantity,
		Remaining:  result.Remaining,
	}

	if err := s.eventPublisher.PublishOfferReserved(ctx, event); err != nil {
		s.logger.Error("Failed to publish OfferReserved event", zap.Error(err))
	}

	return &ReserveResponse{
		OrderID:    result.OrderID,
		PickupCode: result.PickupCode,
		Remaining:  result.Remaining,
	}, nil
}

// CancelOrder cancels a reserved order and restores its stock, in the
// database first and then on the gate.
func (s *OfferService) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OfferService.CancelOrder")
	defer span.End()

	order, err := s.store.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.redis.ReleaseOfferStock(ctx, order.OfferID, order.Quantity); err != nil {
		s.logger.Error("Failed to restore stock gate after cancellation",
			zap.Int64("offer_id", order.OfferID),
			zap.Error(err))
	}

	util.PickupTransitionsTotal.WithLabelValues("order", models.OrderStatusCancelled).Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("offer_id", order.OfferID))
	return order, nil
}

// SyncOfferStockToGate seeds the Redis gate counters from the database on
// startup. Gate failures only degrade the fast path.
func (s *OfferService) SyncOfferStockToGate(ctx context.Context) error {
	offers, err := s.store.GetActiveOffers(ctx)
	if err != nil {
		return err
	}

	for _, offer := range offers {
		remaining := offer.LimitTotal - offer.SoldCount
		if err := s.redis.InitOfferStock(ctx, offer.ID, remaining); err != nil {
			s.logger.Error("Failed to seed stock gate",
				zap.Int64("offer_id", offer.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Stock gate sync completed", zap.Int("count", len(offers)))
	return nil
}

// ListOffers retrieves the active offers
func (s *OfferService) ListOffers(ctx context.Context) ([]models.Offer, error) {
	return s.store.GetActiveOffers(ctx)
}

// ListOrders retrieves a customer's orders
func (s *OfferService) ListOrders(ctx context.Context, customerID int64) ([]models.Order, error) {
	return s.store.GetOrdersByCustomer(ctx, customerID)
}

// CreateOffer creates a new offer and seeds its gate counter
func (s *OfferService) CreateOffer(ctx context.Context, offer *models.Offer) error {
	if err := s.store.CreateOffer(ctx, offer); err != nil {
		return err
	}
	if err := s.redis.InitOfferStock(ctx, offer.ID, offer.LimitTotal); err != nil {
		s.logger.Error("Failed to seed stock gate for new offer",
			zap.Int64("offer_id", offer.ID),
			zap.Error(err))
	}
	return nil
}

// UpdateOffer updates staff-editable offer fields and reseeds the gate
func (s *OfferService) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	if err := s.store.UpdateOffer(ctx, offer); err != nil {
		return err
	}

	current, err := s.store.GetOfferByID(ctx, offer.ID)
	if err != nil {
		return err
	}
	if err := s.redis.InitOfferStock(ctx, offer.ID, current.LimitTotal-current.SoldCount); err != nil {
		s.logger.Error("Failed to reseed stock gate",
			zap.Int64("offer_id", offer.ID),
			zap.Error(err))
	}
	return nil
}
