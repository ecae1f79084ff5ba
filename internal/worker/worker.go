package worker

import (
	"context"
	"log"

	"loyalty-service/internal/broker"
	"loyalty-service/internal/service"
)

// BadgeWorker consumes award events and evaluates achievements in the
// background, keeping badge logic off the award path entirely.
type BadgeWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewBadgeWorker creates a new badge worker
func NewBadgeWorker(consumer *broker.Consumer, badgeService *service.BadgeService) *BadgeWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPointsAwarded(badgeService.HandlePointsAwarded)

	return &BadgeWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *BadgeWorker) Start(ctx context.Context) error {
	log.Println("Starting badge worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *BadgeWorker) Stop() error {
	log.Println("Stopping badge worker...")
	return w.consumer.Close()
}
