package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/citypulse/cityingest/internal/domain"
)

// EventRepository handles database operations for events.
// external_key carries a unique constraint.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Exists checks whether an event with the given external key is already
// persisted.
func (r *EventRepository) Exists(ctx context.Context, externalKey string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM events WHERE external_key = $1)`

	if err := r.db.GetContext(ctx, &exists, query, externalKey); err != nil {
		return false, fmt.Errorf("check event exists: %w", err)
	}

	return exists, nil
}

// Insert persists an event if absent. Returns false without error when a
// row with the same external_key already exists.
func (r *EventRepository) Insert(ctx context.Context, event *domain.Event) (bool, error) {
	query := `
		INSERT INTO events (external_key, title, starts_at, location,
			source_name, source_url, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (external_key) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		event.ExternalKey, event.Title, event.StartsAt, event.Location,
		event.SourceName, event.SourceURL, event.ImageURL,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert event rows affected: %w", err)
	}

	return affected > 0, nil
}

// Count returns the number of persisted events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM events`); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
