package listing

import (
	"context"
	"fmt"

	"github.com/citypulse/cityingest/internal/dateparse"
	"github.com/citypulse/cityingest/internal/logger"
	"github.com/citypulse/cityingest/internal/source"
)

// Config holds one scraped-listing source's configuration.
type Config struct {
	// Name identifies the source in summaries and logs
	Name string
	// URL is the fixed listing page
	URL string
	// Selectors is the site's DOM contract
	Selectors Selectors
	// DateFormat is the parsing algorithm for the site's raw dates
	DateFormat dateparse.Format
}

// Adapter fetches raw listings from one scraped site.
type Adapter struct {
	cfg       Config
	renderer  Renderer
	extractor *Extractor
	logger    logger.Interface
}

// New creates a listing adapter. The renderer is injected so extraction
// can be exercised against fixture HTML without a browser.
func New(cfg Config, renderer Renderer, log logger.Interface) (*Adapter, error) {
	extractor, err := NewExtractor(cfg.Selectors, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
	}
	return &Adapter{
		cfg:       cfg,
		renderer:  renderer,
		extractor: extractor,
		logger:    log.WithSource(cfg.Name),
	}, nil
}

// Name identifies the source.
func (a *Adapter) Name() string {
	return a.cfg.Name
}

// Kind reports the source kind.
func (a *Adapter) Kind() source.Kind {
	return source.KindScrapedListing
}

// Fetch renders the listing page and extracts its items.
func (a *Adapter) Fetch(ctx context.Context) (*source.Result, error) {
	html, err := a.renderer.Render(ctx, a.cfg.URL, a.cfg.Selectors.Item)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", a.cfg.URL, err)
	}

	listings, dropped, err := a.extractor.Extract(html)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", a.cfg.URL, err)
	}

	a.logger.Debug("listing page extracted",
		"items", len(listings),
		"dropped_incomplete", dropped,
	)

	return &source.Result{
		Listings:          listings,
		DateFormat:        a.cfg.DateFormat,
		DroppedIncomplete: dropped,
	}, nil
}
