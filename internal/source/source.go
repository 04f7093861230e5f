// Package source defines the capability every external provider adapter
// implements. Adding a provider means adding an implementation here; the
// pipeline orchestrator never changes.
package source

import (
	"context"

	"github.com/citypulse/cityingest/internal/dateparse"
	"github.com/citypulse/cityingest/internal/domain"
)

// Kind classifies a source by how its records are obtained and whether
// they carry a temporal dimension.
type Kind string

const (
	// KindStructuredAPI is a JSON API source. Its records are places
	// with no temporal dimension; they bypass the date window filter.
	KindStructuredAPI Kind = "structured-api"
	// KindScrapedListing is a headless-browser scraped listing source.
	// Its records are events subject to date normalization and the
	// window filter.
	KindScrapedListing Kind = "scraped-listing"
)

// Result is the common payload one fetch emits. Exactly one of Places or
// Listings is populated, matching the source kind.
type Result struct {
	// Places fetched from a structured API source
	Places []*domain.Place
	// Listings extracted from a scraped listing source
	Listings []domain.RawListing
	// DateFormat is the parsing algorithm for the listings' raw dates
	DateFormat dateparse.Format
	// DroppedIncomplete counts items skipped at extraction time for
	// missing a required field (title, date text, or link)
	DroppedIncomplete int
}

// Source fetches raw records from one external provider.
type Source interface {
	// Name identifies the source in summaries and logs.
	Name() string
	// Kind reports how the source's records are obtained.
	Kind() Kind
	// Fetch retrieves all records for one pipeline run. Implementations
	// must honor ctx cancellation; the orchestrator imposes a
	// per-source timeout around this call.
	Fetch(ctx context.Context) (*Result, error)
}
