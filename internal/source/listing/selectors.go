// Package listing implements the scraped-listing sources. Each variant
// encodes its own DOM selector contract and raw-date text shape; all
// variants share one render-and-extract engine.
package listing

import "errors"

// Selector validation errors.
var (
	ErrMissingItemSelector  = errors.New("item selector is required")
	ErrMissingTitleSelector = errors.New("title selector is required")
	ErrMissingDateSelector  = errors.New("date selector is required")
	ErrMissingLinkSelector  = errors.New("link selector is required")
)

// Selectors defines the CSS selector contract for one listing site.
type Selectors struct {
	// Item matches one listing card
	Item string `mapstructure:"item" yaml:"item"`
	// Title is resolved relative to the item
	Title string `mapstructure:"title" yaml:"title"`
	// Date is the raw date text element, relative to the item
	Date string `mapstructure:"date" yaml:"date"`
	// Location is the venue text element, relative to the item
	Location string `mapstructure:"location" yaml:"location"`
	// Link is the canonical anchor, relative to the item
	Link string `mapstructure:"link" yaml:"link"`
	// Image is the listing image, relative to the item
	Image string `mapstructure:"image" yaml:"image"`
}

// Validate checks that the selectors required for extraction are present.
// Location and Image are optional page features; Item, Title, Date, and
// Link are not.
func (s *Selectors) Validate() error {
	if s.Item == "" {
		return ErrMissingItemSelector
	}
	if s.Title == "" {
		return ErrMissingTitleSelector
	}
	if s.Date == "" {
		return ErrMissingDateSelector
	}
	if s.Link == "" {
		return ErrMissingLinkSelector
	}
	return nil
}
