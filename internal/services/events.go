package services

import (
	"context"
	"log"
	"time"
)

// Marketplace event types.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventCartItemAdded  = "cart.item_added"
)

// Event describes a committed change.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers committed-change events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// publish sends an event after a successful commit. Delivery problems are
// logged and never undo the committed work.
func publish(ctx context.Context, publisher EventPublisher, eventType, entityID, actorID string) {
	if publisher == nil {
		return
	}
	event := Event{
		Type:       eventType,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("Warning: failed to publish %s event for %s: %v", eventType, entityID, err)
	}
}
