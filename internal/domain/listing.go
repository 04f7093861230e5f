package domain

import "time"

// RawListing represents an unprocessed item scraped from a listing page.
// It exists only between extraction and normalization; items missing any
// required field are dropped at extraction time and never become a RawListing.
type RawListing struct {
	// NativeID is the source-native identifier (derived from the canonical link)
	NativeID string
	// Title of the listing item
	Title string
	// RawDate is the unparsed date text exactly as shown on the page
	RawDate string
	// Location is the venue or address text
	Location string
	// URL is the canonical listing link
	URL string
	// ImageURL is the listing image, empty when the item had none
	ImageURL string
	// ScrapedAt records when the item was extracted
	ScrapedAt time.Time
}
