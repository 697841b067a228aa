package queue

import "visitq/queue-service/internal/models"

const (
	EventVisitorRegistered = "visitor.registered"
	EventVisitorUpdated    = "visitor.updated"
)

type Event struct {
	Type    string
	Visitor models.Visitor
}

// Publisher receives coordinator events after the corresponding store commit.
// Delivery is best-effort; Publish must not block the caller and has no error
// channel back to the coordinator.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
