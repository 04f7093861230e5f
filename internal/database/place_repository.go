package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/citypulse/cityingest/internal/domain"
)

// PlaceRepository handles database operations for places.
// place_id carries a unique constraint; the engine relies on it as the
// single source of truth for concurrency safety.
type PlaceRepository struct {
	db *sqlx.DB
}

// NewPlaceRepository creates a new place repository.
func NewPlaceRepository(db *sqlx.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Exists checks whether a place with the given provider-native ID is
// already persisted.
func (r *PlaceRepository) Exists(ctx context.Context, placeID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM places WHERE place_id = $1)`

	if err := r.db.GetContext(ctx, &exists, query, placeID); err != nil {
		return false, fmt.Errorf("check place exists: %w", err)
	}

	return exists, nil
}

// Insert persists a place if absent. Returns false without error when a
// row with the same place_id already exists.
func (r *PlaceRepository) Insert(ctx context.Context, place *domain.Place) (bool, error) {
	query := `
		INSERT INTO places (place_id, name, address, latitude, longitude,
			rating, types, photo_url, user_ratings_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (place_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		place.PlaceID, place.Name, place.Address,
		place.Latitude, place.Longitude, place.Rating,
		pq.Array(place.Types), place.PhotoURL, place.UserRatingsTotal,
	)
	if err != nil {
		return false, fmt.Errorf("insert place: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert place rows affected: %w", err)
	}

	return affected > 0, nil
}

// Count returns the number of persisted places.
func (r *PlaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM places`); err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	return count, nil
}
