package postgres

import "context"

// EnsureSchema creates the visitors table and its day-scope index if they do
// not exist yet. Idempotent; runs at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS visitors (
			visitor_id    UUID PRIMARY KEY,
			ticket_number INTEGER NOT NULL,
			name          TEXT NOT NULL,
			age           INTEGER,
			purpose       TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'waiting',
			created_at    TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS visitors_created_at_idx
		ON visitors (created_at, ticket_number)
	`)
	return err
}
