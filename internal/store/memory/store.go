// Package memory holds an in-memory VisitorStore with the same contract as
// the postgres store: serialized ticket allocation and compare-and-set status
// updates. It backs unit tests and DSN-less development runs.
package memory

import (
	"context"
	"sync"
	"time"

	"visitq/queue-service/internal/models"
	"visitq/queue-service/internal/queue"
	"visitq/queue-service/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	visitors map[string]models.Visitor
}

func NewStore() *Store {
	return &Store{visitors: make(map[string]models.Visitor)}
}

func (s *Store) CreateVisitor(ctx context.Context, input store.CreateVisitorInput) (models.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return models.Visitor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.Visitor, 0, len(s.visitors))
	for _, visitor := range s.visitors {
		records = append(records, visitor)
	}

	visitor := models.Visitor{
		ID:           uuid.NewString(),
		TicketNumber: queue.NextTicketNumber(records, input.DayStart),
		Name:         input.Name,
		Age:          input.Age,
		Purpose:      input.Purpose,
		Status:       models.StatusWaiting,
		CreatedAt:    input.CreatedAt,
	}
	s.visitors[visitor.ID] = visitor
	return visitor, nil
}

func (s *Store) GetVisitor(ctx context.Context, id string) (models.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return models.Visitor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visitor, ok := s.visitors[id]
	if !ok {
		return models.Visitor{}, store.ErrVisitorNotFound
	}
	return visitor, nil
}

func (s *Store) ListCreatedSince(ctx context.Context, since time.Time) ([]models.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var visitors []models.Visitor
	for _, visitor := range s.visitors {
		if visitor.CreatedAt.Before(since) {
			continue
		}
		visitors = append(visitors, visitor)
	}
	return visitors, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) (models.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return models.Visitor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visitor, ok := s.visitors[id]
	if !ok {
		return models.Visitor{}, store.ErrVisitorNotFound
	}
	if visitor.Status != fromStatus {
		return models.Visitor{}, store.ErrStatusChanged
	}
	visitor.Status = toStatus
	s.visitors[id] = visitor
	return visitor, nil
}
