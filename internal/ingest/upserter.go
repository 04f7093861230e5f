package ingest

import (
	"context"
	"fmt"

	"github.com/citypulse/cityingest/internal/database"
	"github.com/citypulse/cityingest/internal/domain"
	"github.com/citypulse/cityingest/internal/logger"
)

// PlaceStore is the persistence boundary for places.
type PlaceStore interface {
	Exists(ctx context.Context, placeID string) (bool, error)
	Insert(ctx context.Context, place *domain.Place) (bool, error)
}

// EventStore is the persistence boundary for events.
type EventStore interface {
	Exists(ctx context.Context, externalKey string) (bool, error)
	Insert(ctx context.Context, event *domain.Event) (bool, error)
}

// UpsertResult is the outcome of one upsert, with the invariant that
// Reason is set exactly when Outcome is OutcomeRejected.
type UpsertResult struct {
	Outcome Outcome
	Reason  string
}

// Upserter is the dedup/upsert engine: insert-if-absent keyed on the
// external identifier, never overwriting an existing record. It is the
// sole writer to the store for the pipeline.
type Upserter struct {
	places PlaceStore
	events EventStore
	logger logger.Interface
}

// NewUpserter creates the engine.
func NewUpserter(places PlaceStore, events EventStore, log logger.Interface) *Upserter {
	return &Upserter{
		places: places,
		events: events,
		logger: log.WithComponent("upserter"),
	}
}

// UpsertPlace validates and inserts one place if absent. An existing row
// is never modified, even when the incoming record disagrees with it.
func (u *Upserter) UpsertPlace(ctx context.Context, place *domain.Place) (UpsertResult, error) {
	if err := place.Validate(); err != nil {
		return UpsertResult{Outcome: OutcomeRejected, Reason: err.Error()}, nil
	}

	exists, err := u.places.Exists(ctx, place.PlaceID)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("place %s: %w", place.PlaceID, err)
	}
	if exists {
		return UpsertResult{Outcome: OutcomeDuplicate}, nil
	}

	inserted, err := u.places.Insert(ctx, place)
	if err != nil {
		// A concurrent run may have inserted between the existence
		// check and here; the unique constraint is the arbiter.
		if database.IsUniqueViolation(err) {
			return UpsertResult{Outcome: OutcomeDuplicate}, nil
		}
		return UpsertResult{}, fmt.Errorf("place %s: %w", place.PlaceID, err)
	}
	if !inserted {
		return UpsertResult{Outcome: OutcomeDuplicate}, nil
	}

	return UpsertResult{Outcome: OutcomeInserted}, nil
}

// UpsertEvent validates and inserts one event if absent.
func (u *Upserter) UpsertEvent(ctx context.Context, event *domain.Event) (UpsertResult, error) {
	if err := event.Validate(); err != nil {
		return UpsertResult{Outcome: OutcomeRejected, Reason: err.Error()}, nil
	}

	exists, err := u.events.Exists(ctx, event.ExternalKey)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("event %s: %w", event.ExternalKey, err)
	}
	if exists {
		return UpsertResult{Outcome: OutcomeDuplicate}, nil
	}

	inserted, err := u.events.Insert(ctx, event)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return UpsertResult{Outcome: OutcomeDuplicate}, nil
		}
		return UpsertResult{}, fmt.Errorf("event %s: %w", event.ExternalKey, err)
	}
	if !inserted {
		return UpsertResult{Outcome: OutcomeDuplicate}, nil
	}

	return UpsertResult{Outcome: OutcomeInserted}, nil
}
