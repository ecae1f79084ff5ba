package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"loyalty-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPointsAwarded publishes PointsAwarded event
func (ep *EventPublisher) PublishPointsAwarded(ctx context.Context, event *models.PointsAwardedEvent) error {
	key := fmt.Sprintf("customer-%d", event.CustomerID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishRewardRedeemed publishes RewardRedeemed event
func (ep *EventPublisher) PublishRewardRedeemed(ctx context.Context, event *models.RewardRedeemedEvent) error {
	key := fmt.Sprintf("customer-%d", event.CustomerID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOfferReserved publishes OfferReserved event
func (ep *EventPublisher) PublishOfferReserved(ctx context.Context, event *models.OfferReservedEvent) error {
	key := fmt.Sprintf("offer-%d", event.OfferID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBadgeGranted publishes BadgeGranted event
func (ep *EventPublisher) PublishBadgeGranted(ctx context.Context, event *models.BadgeGrantedEvent) error {
	key := fmt.Sprintf("customer-%d", event.CustomerID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onPointsAwarded func(context.Context, *models.PointsAwardedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPointsAwarded registers a handler for PointsAwarded events
func (eh *EventHandler) OnPointsAwarded(handler func(context.Context, *models.PointsAwardedEvent) error) {
	eh.onPointsAwarded = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePointsAwarded:
		if eh.onPointsAwarded != nil {
			var event models.PointsAwardedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PointsAwarded event: %w", err)
			}
			return eh.onPointsAwarded(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
