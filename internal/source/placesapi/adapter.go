// Package placesapi implements the structured nearby-search source.
// It issues one request per category tag around a fixed geographic
// center; a failure in one category never blocks the others.
package placesapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/citypulse/cityingest/internal/domain"
	"github.com/citypulse/cityingest/internal/logger"
	"github.com/citypulse/cityingest/internal/source"
)

// ErrAllCategoriesFailed is returned when no category request succeeded.
var ErrAllCategoriesFailed = errors.New("all category requests failed")

// Defaults.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxConcurrent  = 4
	defaultPhotoMaxWidth  = 400
	statusOK              = "OK"
	statusZeroResults     = "ZERO_RESULTS"
)

// Config holds the adapter configuration.
type Config struct {
	// Name identifies the source in summaries and logs
	Name string
	// BaseURL is the nearby-search endpoint
	BaseURL string
	// PhotoBaseURL is the photo resolution endpoint
	PhotoBaseURL string
	// APIKey authenticates requests
	APIKey string
	// Latitude and Longitude form the fixed search center
	Latitude  float64
	Longitude float64
	// RadiusMeters is the fixed search radius
	RadiusMeters int
	// Categories are the category tags, one request each
	Categories []string
	// RequestTimeout bounds each category request
	RequestTimeout time.Duration
	// MaxConcurrent bounds concurrent category requests
	MaxConcurrent int
}

// Adapter fetches places from the structured nearby-search API.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger logger.Interface
}

// New creates a places API adapter.
func New(cfg Config, client *http.Client, log logger.Interface) *Adapter {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
		logger: log.WithSource(cfg.Name),
	}
}

// Name identifies the source.
func (a *Adapter) Name() string {
	return a.cfg.Name
}

// Kind reports the source kind.
func (a *Adapter) Kind() source.Kind {
	return source.KindStructuredAPI
}

// nearbyResponse is the provider's response envelope.
type nearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []nearbyPlace `json:"results"`
}

// nearbyPlace is one place-like object in a nearby-search response.
type nearbyPlace struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating *float64 `json:"rating"`
	Types  []string `json:"types"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	UserRatingsTotal int `json:"user_ratings_total"`
}

// Fetch issues one request per configured category, bounded by
// MaxConcurrent. It returns one place per item per category; duplicates
// across categories are expected and resolved downstream by place ID.
// It fails only when every category request failed.
func (a *Adapter) Fetch(ctx context.Context) (*source.Result, error) {
	var (
		mu     sync.Mutex
		places []*domain.Place
		failed int
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, a.cfg.MaxConcurrent)

	for _, category := range a.cfg.Categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			results, err := a.fetchCategory(ctx, category)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				a.logger.Warn("category request failed",
					"category", category,
					"error", err,
				)
				return
			}
			places = append(places, results...)
		}(category)
	}

	wg.Wait()

	if failed == len(a.cfg.Categories) && len(a.cfg.Categories) > 0 {
		return nil, ErrAllCategoriesFailed
	}

	a.logger.Debug("nearby search complete",
		"categories", len(a.cfg.Categories),
		"failed_categories", failed,
		"places", len(places),
	)

	return &source.Result{Places: places}, nil
}

// fetchCategory performs one nearby-search request and maps its results.
func (a *Adapter) fetchCategory(ctx context.Context, category string) ([]*domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.categoryURL(category), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nearby search: unexpected status %d", resp.StatusCode)
	}

	var envelope nearbyResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	switch envelope.Status {
	case statusOK, statusZeroResults, "":
	default:
		return nil, fmt.Errorf("nearby search: provider status %s: %s", envelope.Status, envelope.ErrorMessage)
	}

	places := make([]*domain.Place, 0, len(envelope.Results))
	for i := range envelope.Results {
		places = append(places, a.toPlace(&envelope.Results[i]))
	}
	return places, nil
}

// categoryURL builds the nearby-search URL for one category tag.
func (a *Adapter) categoryURL(category string) string {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", a.cfg.Latitude, a.cfg.Longitude))
	params.Set("radius", strconv.Itoa(a.cfg.RadiusMeters))
	params.Set("type", category)
	params.Set("key", a.cfg.APIKey)
	return a.cfg.BaseURL + "?" + params.Encode()
}

// toPlace maps a provider item to the canonical place shape. A photo URL
// is resolved only when the item carries a photo reference.
func (a *Adapter) toPlace(item *nearbyPlace) *domain.Place {
	place := &domain.Place{
		PlaceID:          item.PlaceID,
		Name:             item.Name,
		Address:          item.Vicinity,
		Latitude:         item.Geometry.Location.Lat,
		Longitude:        item.Geometry.Location.Lng,
		Rating:           item.Rating,
		Types:            item.Types,
		UserRatingsTotal: item.UserRatingsTotal,
	}

	if len(item.Photos) > 0 && item.Photos[0].PhotoReference != "" {
		photoURL := a.photoURL(item.Photos[0].PhotoReference)
		place.PhotoURL = &photoURL
	}

	return place
}

// photoURL resolves a photo reference into a retrievable URL.
func (a *Adapter) photoURL(reference string) string {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(defaultPhotoMaxWidth))
	params.Set("photo_reference", reference)
	params.Set("key", a.cfg.APIKey)
	return a.cfg.PhotoBaseURL + "?" + params.Encode()
}
