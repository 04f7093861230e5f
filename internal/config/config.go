// Package config provides configuration management for the ingestion
// service. It handles loading, validation, and access to configuration
// values from a YAML file and environment variables via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/citypulse/cityingest/internal/database"
	"github.com/citypulse/cityingest/internal/source/listing"
)

// Pipeline defaults.
const (
	defaultMaxConcurrentSources = 2
	defaultSourceTimeout        = 90 * time.Second
	defaultRunTimeout           = 10 * time.Minute
	defaultTimezone             = "Europe/Bucharest"
	defaultScheduleCron         = "0 6 * * *"
	defaultMetricsAddr          = ":9090"
)

// Config is the root application configuration.
type Config struct {
	// Logging holds logger settings
	Logging LoggingConfig `mapstructure:"logging"`
	// Database holds Postgres connection settings
	Database database.Config `mapstructure:"database"`
	// Places holds the structured API adapter settings
	Places PlacesConfig `mapstructure:"places"`
	// Listings holds one entry per scraped listing source
	Listings []ListingConfig `mapstructure:"listings"`
	// Pipeline holds orchestrator settings
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Metrics holds the scrape endpoint settings
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Schedule holds the daemon cron settings
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// PlacesConfig holds the structured API adapter settings.
type PlacesConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Name           string        `mapstructure:"name"`
	BaseURL        string        `mapstructure:"base_url"`
	PhotoBaseURL   string        `mapstructure:"photo_base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Latitude       float64       `mapstructure:"latitude"`
	Longitude      float64       `mapstructure:"longitude"`
	RadiusMeters   int           `mapstructure:"radius_meters"`
	Categories     []string      `mapstructure:"categories"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
}

// ListingConfig declares one scraped listing source.
type ListingConfig struct {
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant"`
	URL     string `mapstructure:"url"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	MaxConcurrentSources int           `mapstructure:"max_concurrent_sources"`
	SourceTimeout        time.Duration `mapstructure:"source_timeout"`
	RunTimeout           time.Duration `mapstructure:"run_timeout"`
	WindowOffsets        []int         `mapstructure:"window_offsets"`
	Timezone             string        `mapstructure:"timezone"`
}

// MetricsConfig holds the scrape endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ScheduleConfig holds the daemon cron settings.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// Load reads configuration from path (optional), environment variables,
// and defaults, in ascending precedence of env over file over defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "json")
	v.SetDefault("logging.development", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "cityingest")
	v.SetDefault("database.dbname", "cityingest")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("places.enabled", false)
	v.SetDefault("places.name", "places")
	v.SetDefault("places.radius_meters", 5000)
	v.SetDefault("places.request_timeout", 10*time.Second)
	v.SetDefault("places.max_concurrent", 4)

	v.SetDefault("pipeline.max_concurrent_sources", defaultMaxConcurrentSources)
	v.SetDefault("pipeline.source_timeout", defaultSourceTimeout)
	v.SetDefault("pipeline.run_timeout", defaultRunTimeout)
	v.SetDefault("pipeline.window_offsets", []int{-1, 0, 1, 2, 3})
	v.SetDefault("pipeline.timezone", defaultTimezone)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", defaultMetricsAddr)

	v.SetDefault("schedule.cron", defaultScheduleCron)
}

// bindEnvVars maps secrets and common overrides to friendlier env names.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.password", "DATABASE_PASSWORD", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.host", "DATABASE_HOST", "POSTGRES_HOST")
	_ = v.BindEnv("places.api_key", "PLACES_API_KEY")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.encoding", "LOG_FORMAT")
}

// Validate checks the configuration for values that would make a run
// fail at startup rather than midway through.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database name is required")
	}

	if c.Places.Enabled {
		if c.Places.APIKey == "" {
			return errors.New("places API key is required when the places source is enabled")
		}
		if c.Places.BaseURL == "" {
			return errors.New("places base URL is required when the places source is enabled")
		}
		if len(c.Places.Categories) == 0 {
			return errors.New("at least one places category is required")
		}
	}

	seen := map[string]struct{}{}
	for i, l := range c.Listings {
		if l.Name == "" {
			return fmt.Errorf("listing %d: name is required", i)
		}
		if _, dup := seen[l.Name]; dup {
			return fmt.Errorf("listing %q: duplicate source name", l.Name)
		}
		seen[l.Name] = struct{}{}
		if l.URL == "" {
			return fmt.Errorf("listing %q: url is required", l.Name)
		}
		if !listing.KnownVariant(l.Variant) {
			return fmt.Errorf("listing %q: unknown variant %q", l.Name, l.Variant)
		}
	}

	if c.Pipeline.MaxConcurrentSources <= 0 {
		return errors.New("pipeline max_concurrent_sources must be positive")
	}
	if len(c.Pipeline.WindowOffsets) == 0 {
		return errors.New("pipeline window_offsets must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("pipeline timezone: %w", err)
	}

	return nil
}

// Location resolves the configured pipeline timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Pipeline.Timezone)
}
