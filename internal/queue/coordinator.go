package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"visitq/queue-service/internal/models"
	"visitq/queue-service/internal/store"
)

type RegisterInput struct {
	Name    string
	Age     *int
	Purpose string
}

type Options struct {
	// Location fixes the reference timezone for day boundaries. Defaults to
	// the host timezone.
	Location *time.Location
	// Now is the clock used for created_at and day scoping. Defaults to
	// time.Now.
	Now func() time.Time
}

// Coordinator orchestrates the sequence allocator and lifecycle validator
// against the visitor store and publishes an event after every committed
// change. It never publishes for a failed operation and never retries
// internally.
type Coordinator struct {
	store    store.VisitorStore
	events   Publisher
	now      func() time.Time
	location *time.Location
}

func NewCoordinator(st store.VisitorStore, events Publisher, options Options) *Coordinator {
	if events == nil {
		events = NopPublisher{}
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	loc := options.Location
	if loc == nil {
		loc = time.Local
	}
	return &Coordinator{
		store:    st,
		events:   events,
		now:      now,
		location: loc,
	}
}

func (c *Coordinator) RegisterVisitor(ctx context.Context, input RegisterInput) (models.Visitor, error) {
	name := strings.TrimSpace(input.Name)
	purpose := strings.TrimSpace(input.Purpose)
	if name == "" {
		return models.Visitor{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if purpose == "" {
		return models.Visitor{}, &ValidationError{Field: "purpose", Message: "must not be empty"}
	}
	if input.Age != nil && *input.Age < 0 {
		return models.Visitor{}, &ValidationError{Field: "age", Message: "must not be negative"}
	}

	now := c.now()
	visitor, err := c.store.CreateVisitor(ctx, store.CreateVisitorInput{
		Name:      name,
		Age:       input.Age,
		Purpose:   purpose,
		CreatedAt: now,
		DayStart:  StartOfDay(now, c.location),
	})
	if err != nil {
		return models.Visitor{}, fmt.Errorf("create visitor: %w", err)
	}

	c.events.Publish(Event{Type: EventVisitorRegistered, Visitor: visitor})
	return visitor, nil
}

func (c *Coordinator) ListToday(ctx context.Context) ([]models.Visitor, error) {
	dayStart := StartOfDay(c.now(), c.location)
	visitors, err := c.store.ListCreatedSince(ctx, dayStart)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	sort.Slice(visitors, func(i, j int) bool {
		ri, rj := statusRank(visitors[i].Status), statusRank(visitors[j].Status)
		if ri != rj {
			return ri < rj
		}
		return visitors[i].TicketNumber < visitors[j].TicketNumber
	})
	return visitors, nil
}

func (c *Coordinator) AdvanceStatus(ctx context.Context, id, requestedStatus string) (models.Visitor, error) {
	visitor, err := c.store.GetVisitor(ctx, id)
	if err != nil {
		return models.Visitor{}, err
	}

	for {
		if err := ValidateTransition(visitor.Status, requestedStatus); err != nil {
			return models.Visitor{}, err
		}

		updated, err := c.store.UpdateStatus(ctx, id, visitor.Status, requestedStatus)
		if errors.Is(err, store.ErrStatusChanged) {
			// Lost a race against a concurrent advance. Re-read and
			// re-validate; the forward-only lifecycle rejects the stale
			// request instead of overwriting the winner.
			visitor, err = c.store.GetVisitor(ctx, id)
			if err != nil {
				return models.Visitor{}, err
			}
			continue
		}
		if err != nil {
			return models.Visitor{}, fmt.Errorf("update status: %w", err)
		}

		c.events.Publish(Event{Type: EventVisitorUpdated, Visitor: updated})
		return updated, nil
	}
}

// Done sorts after the active statuses; within equal rank the ticket number
// decides. Recomputed on every ListToday call.
func statusRank(status string) int {
	if status == models.StatusDone {
		return 1
	}
	return 0
}
