package store

import (
	"context"
	"time"

	"visitq/queue-service/internal/models"
)

type CreateVisitorInput struct {
	Name      string
	Age       *int
	Purpose   string
	CreatedAt time.Time
	DayStart  time.Time
}

// VisitorStore is the record store behind the queue coordinator. CreateVisitor
// must allocate the ticket number and insert the record as one atomic step
// with respect to other concurrent CreateVisitor calls for the same day.
// UpdateStatus must apply the new status only if the stored status still
// equals fromStatus, returning ErrStatusChanged otherwise.
type VisitorStore interface {
	CreateVisitor(ctx context.Context, input CreateVisitorInput) (models.Visitor, error)
	GetVisitor(ctx context.Context, id string) (models.Visitor, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]models.Visitor, error)
	UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) (models.Visitor, error)
}
