package listing

import (
	"fmt"

	"github.com/citypulse/cityingest/internal/dateparse"
)

// Variant names accepted in configuration.
const (
	// VariantTickets is the ticketing site: card grid, numeric
	// "DD.MM.YYYY, HH:MM" dates.
	VariantTickets = "tickets"
	// VariantAgenda is the city agenda site: article list, localized
	// "D <month-name>" dates with no year.
	VariantAgenda = "agenda"
)

// variantContracts maps a variant to its DOM selector contract and
// raw-date shape. Selector drift on either site shows up as a rising
// dropped-incomplete or unparseable-date count, not as a crash.
var variantContracts = map[string]struct {
	selectors Selectors
	format    dateparse.Format
}{
	VariantTickets: {
		selectors: Selectors{
			Item:     "div.event-card",
			Title:    ".event-card-title",
			Date:     ".event-card-date",
			Location: ".event-card-venue",
			Link:     "a.event-card-link",
			Image:    "img.event-card-image",
		},
		format: dateparse.FormatNumeric,
	},
	VariantAgenda: {
		selectors: Selectors{
			Item:     "article.agenda-item",
			Title:    "h3.agenda-item-title",
			Date:     "span.agenda-item-date",
			Location: "span.agenda-item-place",
			Link:     "a.agenda-item-url",
			Image:    ".agenda-item-thumb img",
		},
		format: dateparse.FormatMonthName,
	},
}

// KnownVariant reports whether variant names a selector contract.
func KnownVariant(variant string) bool {
	_, ok := variantContracts[variant]
	return ok
}

// NewVariant creates a listing adapter config for a named variant.
func NewVariant(name, variant, pageURL string) (Config, error) {
	contract, ok := variantContracts[variant]
	if !ok {
		return Config{}, fmt.Errorf("unknown listing variant %q", variant)
	}
	return Config{
		Name:       name,
		URL:        pageURL,
		Selectors:  contract.selectors,
		DateFormat: contract.format,
	}, nil
}
