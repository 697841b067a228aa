package hub

import (
	"encoding/json"
	"log"
	"time"

	"visitq/queue-service/internal/models"
	"visitq/queue-service/internal/queue"
)

type eventEnvelope struct {
	Type      string         `json:"type"`
	Payload   models.Visitor `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// Fanout bridges coordinator events onto the hub. Delivery is at-most-once
// with no replay buffer; observers reconcile missed events by refetching the
// day's list on connect and reconnect.
type Fanout struct {
	hub *Hub
	now func() time.Time
}

func NewFanout(h *Hub) *Fanout {
	return &Fanout{hub: h, now: time.Now}
}

func (f *Fanout) Publish(event queue.Event) {
	payload, err := json.Marshal(eventEnvelope{
		Type:      event.Type,
		Payload:   event.Visitor,
		CreatedAt: f.now().UTC(),
	})
	if err != nil {
		log.Printf("marshal event %s: %v", event.Type, err)
		return
	}
	f.hub.Broadcast(payload)
}
