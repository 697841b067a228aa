package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"visitq/queue-service/internal/models"
	"visitq/queue-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// registrationLockKey serializes the read-max-then-insert window across all
// concurrent registrations. Without it two transactions can read the same
// day maximum and commit duplicate ticket numbers.
const registrationLockKey = 0x76697371

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateVisitor(ctx context.Context, input store.CreateVisitorInput) (models.Visitor, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Visitor{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
		return models.Visitor{}, err
	}

	// The ticket number is derived from committed rows, never from a
	// standalone counter, so an aborted insert leaves no gap and the day
	// rolls over without a reset.
	var next int
	row := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(ticket_number), 0) + 1
		FROM visitors
		WHERE created_at >= $1
	`, input.DayStart)
	if err = row.Scan(&next); err != nil {
		return models.Visitor{}, err
	}

	visitor := models.Visitor{
		ID:           uuid.NewString(),
		TicketNumber: next,
		Name:         input.Name,
		Age:          input.Age,
		Purpose:      input.Purpose,
		Status:       models.StatusWaiting,
	}
	row = tx.QueryRow(ctx, `
		INSERT INTO visitors (visitor_id, ticket_number, name, age, purpose, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, visitor.ID, visitor.TicketNumber, visitor.Name, visitor.Age, visitor.Purpose, visitor.Status, input.CreatedAt)
	if err = row.Scan(&visitor.CreatedAt); err != nil {
		return models.Visitor{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Visitor{}, err
	}
	return visitor, nil
}

func (s *Store) GetVisitor(ctx context.Context, id string) (models.Visitor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT visitor_id, ticket_number, name, age, purpose, status, created_at
		FROM visitors
		WHERE visitor_id = $1
	`, id)
	visitor, err := scanVisitor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Visitor{}, store.ErrVisitorNotFound
	}
	if err != nil {
		return models.Visitor{}, err
	}
	return visitor, nil
}

func (s *Store) ListCreatedSince(ctx context.Context, since time.Time) ([]models.Visitor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT visitor_id, ticket_number, name, age, purpose, status, created_at
		FROM visitors
		WHERE created_at >= $1
		ORDER BY ticket_number ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []models.Visitor
	for rows.Next() {
		visitor, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, visitor)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visitors, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) (models.Visitor, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE visitors
		SET status = $3
		WHERE visitor_id = $1 AND status = $2
		RETURNING visitor_id, ticket_number, name, age, purpose, status, created_at
	`, id, fromStatus, toStatus)
	visitor, err := scanVisitor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the record is gone or its status moved under us; tell the
		// caller which so a stale request gets re-validated, not applied.
		var exists bool
		check := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visitors WHERE visitor_id = $1)`, id)
		if scanErr := check.Scan(&exists); scanErr != nil {
			return models.Visitor{}, scanErr
		}
		if !exists {
			return models.Visitor{}, store.ErrVisitorNotFound
		}
		return models.Visitor{}, store.ErrStatusChanged
	}
	if err != nil {
		return models.Visitor{}, err
	}
	return visitor, nil
}

func scanVisitor(row pgx.Row) (models.Visitor, error) {
	var visitor models.Visitor
	var ageNull sql.NullInt64
	if err := row.Scan(&visitor.ID, &visitor.TicketNumber, &visitor.Name, &ageNull, &visitor.Purpose, &visitor.Status, &visitor.CreatedAt); err != nil {
		return models.Visitor{}, err
	}
	if ageNull.Valid {
		age := int(ageNull.Int64)
		visitor.Age = &age
	}
	return visitor, nil
}
