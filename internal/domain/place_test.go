package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/cityingest/internal/domain"
)

func float64Ptr(v float64) *float64 { return &v }

func validPlace() *domain.Place {
	return &domain.Place{
		PlaceID:          "ChIJabc123",
		Name:             "Gradina Botanica",
		Address:          "Strada Republicii 42",
		Latitude:         float64Ptr(46.7596),
		Longitude:        float64Ptr(23.5882),
		Rating:           float64Ptr(4.7),
		Types:            []string{"park"},
		UserRatingsTotal: 1200,
	}
}

func TestPlaceValidate(t *testing.T) {
	t.Run("valid place passes", func(t *testing.T) {
		require.NoError(t, validPlace().Validate())
	})

	t.Run("missing latitude is rejected", func(t *testing.T) {
		p := validPlace()
		p.Latitude = nil
		assert.ErrorIs(t, p.Validate(), domain.ErrMissingCoordinates)
	})

	t.Run("missing longitude is rejected", func(t *testing.T) {
		p := validPlace()
		p.Longitude = nil
		assert.ErrorIs(t, p.Validate(), domain.ErrMissingCoordinates)
	})

	t.Run("out of range coordinates are rejected", func(t *testing.T) {
		p := validPlace()
		p.Latitude = float64Ptr(91.0)
		assert.ErrorIs(t, p.Validate(), domain.ErrCoordinatesOutOfRange)
	})

	t.Run("rating above five is rejected", func(t *testing.T) {
		p := validPlace()
		p.Rating = float64Ptr(5.1)
		assert.ErrorIs(t, p.Validate(), domain.ErrRatingOutOfRange)
	})

	t.Run("absent rating is allowed", func(t *testing.T) {
		p := validPlace()
		p.Rating = nil
		assert.NoError(t, p.Validate())
	})

	t.Run("empty types are rejected", func(t *testing.T) {
		p := validPlace()
		p.Types = nil
		assert.ErrorIs(t, p.Validate(), domain.ErrEmptyTypes)
	})

	t.Run("missing place id is rejected", func(t *testing.T) {
		p := validPlace()
		p.PlaceID = ""
		assert.ErrorIs(t, p.Validate(), domain.ErrMissingPlaceID)
	})

	t.Run("negative ratings total is rejected", func(t *testing.T) {
		p := validPlace()
		p.UserRatingsTotal = -1
		assert.ErrorIs(t, p.Validate(), domain.ErrNegativeRatingsTotal)
	})
}

func TestEventValidate(t *testing.T) {
	t.Run("external key format", func(t *testing.T) {
		assert.Equal(t, "tickets::4821", domain.NewExternalKey("tickets", "4821"))
	})

	t.Run("zero start time is rejected", func(t *testing.T) {
		e := &domain.Event{
			ExternalKey: "tickets::4821",
			Title:       "Concert simfonic",
			SourceURL:   "https://tickets.example/e/4821",
		}
		assert.ErrorIs(t, e.Validate(), domain.ErrMissingStartsAt)
	})

	t.Run("missing title is rejected", func(t *testing.T) {
		e := &domain.Event{ExternalKey: "agenda::9"}
		assert.ErrorIs(t, e.Validate(), domain.ErrMissingTitle)
	})
}
