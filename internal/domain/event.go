package domain

import (
	"errors"
	"fmt"
	"time"
)

// Event validation errors.
var (
	// ErrMissingExternalKey indicates an event without a dedup key.
	ErrMissingExternalKey = errors.New("event external key is required")
	// ErrMissingTitle indicates an event without a title.
	ErrMissingTitle = errors.New("event title is required")
	// ErrMissingStartsAt indicates an event without a valid start instant.
	ErrMissingStartsAt = errors.New("event start time is required")
	// ErrMissingSourceURL indicates an event without a canonical link.
	ErrMissingSourceURL = errors.New("event source url is required")
)

// Event represents a normalized event ready for upsert.
// ExternalKey is stable per source and source-native identifier; it is
// the dedup key at the persistence boundary.
type Event struct {
	// ExternalKey uniquely identifies the event across runs (source-qualified)
	ExternalKey string `db:"external_key" json:"external_key"`
	// Title of the event
	Title string `db:"title" json:"title"`
	// StartsAt is the absolute, timezone-qualified start instant
	StartsAt time.Time `db:"starts_at" json:"starts_at"`
	// Location is free-text venue or address information
	Location string `db:"location" json:"location"`
	// SourceName identifies the adapter that produced the event
	SourceName string `db:"source_name" json:"source_name"`
	// SourceURL is the canonical listing link
	SourceURL string `db:"source_url" json:"source_url"`
	// ImageURL is the listing image, nil when the source had none
	ImageURL *string `db:"image_url" json:"image_url,omitempty"`
	// CreatedAt is the record creation timestamp
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewExternalKey builds a source-qualified dedup key.
func NewExternalKey(sourceName, nativeID string) string {
	return fmt.Sprintf("%s::%s", sourceName, nativeID)
}

// Validate checks the event invariants before persistence.
// An event is never persisted with a zero start instant.
func (e *Event) Validate() error {
	if e.ExternalKey == "" {
		return ErrMissingExternalKey
	}
	if e.Title == "" {
		return ErrMissingTitle
	}
	if e.StartsAt.IsZero() {
		return ErrMissingStartsAt
	}
	if e.SourceURL == "" {
		return ErrMissingSourceURL
	}
	return nil
}
