// Package common provides shared dependency construction for commands.
package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/citypulse/cityingest/internal/config"
	"github.com/citypulse/cityingest/internal/database"
	"github.com/citypulse/cityingest/internal/dateparse"
	"github.com/citypulse/cityingest/internal/ingest"
	"github.com/citypulse/cityingest/internal/logger"
	"github.com/citypulse/cityingest/internal/source"
	"github.com/citypulse/cityingest/internal/source/listing"
	"github.com/citypulse/cityingest/internal/source/placesapi"
)

// Deps bundles the dependencies every command needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewDeps loads configuration and builds the logger.
func NewDeps(cfgFile string, debug bool) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:       logger.Level(level),
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// App is a fully wired pipeline plus the resources it owns.
type App struct {
	Pipeline *ingest.Pipeline
	DB       *sqlx.DB
}

// Close releases the resources the app holds.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// BuildApp connects to the store and assembles the pipeline from
// configuration. The caller owns Close.
func BuildApp(deps *Deps) (*App, error) {
	cfg := deps.Config

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sources, err := buildSources(cfg, deps.Logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	upserter := ingest.NewUpserter(
		database.NewPlaceRepository(db),
		database.NewEventRepository(db),
		deps.Logger,
	)

	pipeline := ingest.NewPipeline(
		ingest.Config{
			MaxConcurrentSources: cfg.Pipeline.MaxConcurrentSources,
			SourceTimeout:        cfg.Pipeline.SourceTimeout,
			RunTimeout:           cfg.Pipeline.RunTimeout,
			WindowOffsets:        cfg.Pipeline.WindowOffsets,
		},
		sources,
		dateparse.New(loc),
		upserter,
		loc,
		deps.Logger,
	)

	return &App{Pipeline: pipeline, DB: db}, nil
}

// buildSources assembles one adapter per configured source.
func buildSources(cfg *config.Config, log logger.Interface) ([]source.Source, error) {
	var sources []source.Source

	if cfg.Places.Enabled {
		sources = append(sources, placesapi.New(placesapi.Config{
			Name:           cfg.Places.Name,
			BaseURL:        cfg.Places.BaseURL,
			PhotoBaseURL:   cfg.Places.PhotoBaseURL,
			APIKey:         cfg.Places.APIKey,
			Latitude:       cfg.Places.Latitude,
			Longitude:      cfg.Places.Longitude,
			RadiusMeters:   cfg.Places.RadiusMeters,
			Categories:     cfg.Places.Categories,
			RequestTimeout: cfg.Places.RequestTimeout,
			MaxConcurrent:  cfg.Places.MaxConcurrent,
		}, nil, log))
	}

	if len(cfg.Listings) > 0 {
		// Listing adapters share one browser renderer; the pipeline's
		// source bound keeps concurrent sessions in check.
		renderer := listing.NewChromeRenderer()
		for _, lc := range cfg.Listings {
			adapterCfg, err := listing.NewVariant(lc.Name, lc.Variant, lc.URL)
			if err != nil {
				return nil, fmt.Errorf("listing %q: %w", lc.Name, err)
			}
			adapter, err := listing.New(adapterCfg, renderer, log)
			if err != nil {
				return nil, fmt.Errorf("listing %q: %w", lc.Name, err)
			}
			sources = append(sources, adapter)
		}
	}

	return sources, nil
}
