// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Place validation errors.
var (
	// ErrMissingPlaceID indicates a place without a provider-native identifier.
	ErrMissingPlaceID = errors.New("place id is required")
	// ErrMissingName indicates a place without a name.
	ErrMissingName = errors.New("place name is required")
	// ErrMissingCoordinates indicates a place with one or both coordinates absent.
	ErrMissingCoordinates = errors.New("latitude and longitude are required")
	// ErrCoordinatesOutOfRange indicates coordinates outside valid geographic bounds.
	ErrCoordinatesOutOfRange = errors.New("coordinates out of range")
	// ErrRatingOutOfRange indicates a rating outside the 0.0-5.0 range.
	ErrRatingOutOfRange = errors.New("rating out of range")
	// ErrEmptyTypes indicates a place without category tags.
	ErrEmptyTypes = errors.New("place must have at least one type")
	// ErrNegativeRatingsTotal indicates a negative user ratings count.
	ErrNegativeRatingsTotal = errors.New("user ratings total cannot be negative")
)

// Geographic bounds for coordinate validation.
const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
	maxRating    = 5.0
)

// Place represents a persisted point of interest.
// PlaceID is the provider-native stable identifier and the dedup key.
type Place struct {
	// PlaceID is the provider-native stable identifier
	PlaceID string `db:"place_id" json:"place_id"`
	// Name is the display name of the place
	Name string `db:"name" json:"name"`
	// Address is the human-readable address or vicinity
	Address string `db:"address" json:"address"`
	// Latitude of the place, nil when the provider omitted it
	Latitude *float64 `db:"latitude" json:"latitude"`
	// Longitude of the place, nil when the provider omitted it
	Longitude *float64 `db:"longitude" json:"longitude"`
	// Rating is the provider rating (0.0-5.0), nil when absent
	Rating *float64 `db:"rating" json:"rating,omitempty"`
	// Types are the provider category tags
	Types []string `db:"-" json:"types"`
	// PhotoURL is a retrievable photo URL, nil when no photo reference exists
	PhotoURL *string `db:"photo_url" json:"photo_url,omitempty"`
	// UserRatingsTotal is the number of provider ratings
	UserRatingsTotal int `db:"user_ratings_total" json:"user_ratings_total"`
	// CreatedAt is the record creation timestamp
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Validate checks the place invariants before persistence.
func (p *Place) Validate() error {
	if p.PlaceID == "" {
		return ErrMissingPlaceID
	}
	if p.Name == "" {
		return ErrMissingName
	}
	if p.Latitude == nil || p.Longitude == nil {
		return ErrMissingCoordinates
	}
	if *p.Latitude < minLatitude || *p.Latitude > maxLatitude ||
		*p.Longitude < minLongitude || *p.Longitude > maxLongitude {
		return fmt.Errorf("%w: lat=%f lng=%f", ErrCoordinatesOutOfRange, *p.Latitude, *p.Longitude)
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > maxRating) {
		return fmt.Errorf("%w: %f", ErrRatingOutOfRange, *p.Rating)
	}
	if len(p.Types) == 0 {
		return ErrEmptyTypes
	}
	if p.UserRatingsTotal < 0 {
		return ErrNegativeRatingsTotal
	}
	return nil
}
