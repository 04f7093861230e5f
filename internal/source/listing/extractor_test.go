package listing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/cityingest/internal/dateparse"
	"github.com/citypulse/cityingest/internal/logger"
	"github.com/citypulse/cityingest/internal/source"
	"github.com/citypulse/cityingest/internal/source/listing"
)

const ticketsPage = `
<html><body>
<div class="event-card">
  <a class="event-card-link" href="/bilete/concert-simfonic-4821">
    <img class="event-card-image" data-src="/img/4821.jpg" src="placeholder.gif"/>
  </a>
  <div class="event-card-title">Concert simfonic</div>
  <div class="event-card-date">19.05.2024, 20:00</div>
  <div class="event-card-venue">Sala Palatului</div>
</div>
<div class="event-card">
  <a class="event-card-link" href="https://tickets.example/bilete/teatru-5512">ignore</a>
  <div class="event-card-title">Seara de teatru</div>
  <div class="event-card-date">20.05.2024,</div>
</div>
<div class="event-card">
  <div class="event-card-title">Fara data</div>
  <a class="event-card-link" href="/bilete/fara-data"></a>
</div>
<div class="event-card">
  <div class="event-card-date">21.05.2024, 19:00</div>
  <a class="event-card-link" href="/bilete/fara-titlu"></a>
</div>
</body></html>`

func ticketsSelectors() listing.Selectors {
	cfg, err := listing.NewVariant("tickets", listing.VariantTickets, "https://tickets.example/bilete")
	if err != nil {
		panic(err)
	}
	return cfg.Selectors
}

func TestExtractCompleteItems(t *testing.T) {
	extractor, err := listing.NewExtractor(ticketsSelectors(), "https://tickets.example/bilete")
	require.NoError(t, err)

	listings, dropped, err := extractor.Extract(ticketsPage)
	require.NoError(t, err)

	// Two complete items; one missing date, one missing title.
	require.Len(t, listings, 2)
	assert.Equal(t, 2, dropped)

	first := listings[0]
	assert.Equal(t, "Concert simfonic", first.Title)
	assert.Equal(t, "19.05.2024, 20:00", first.RawDate)
	assert.Equal(t, "Sala Palatului", first.Location)
	assert.Equal(t, "https://tickets.example/bilete/concert-simfonic-4821", first.URL)
	assert.Equal(t, "concert-simfonic-4821", first.NativeID)
	assert.Equal(t, "https://tickets.example/img/4821.jpg", first.ImageURL)

	second := listings[1]
	assert.Equal(t, "teatru-5512", second.NativeID)
	assert.Empty(t, second.ImageURL)
}

func TestExtractEmptyPage(t *testing.T) {
	extractor, err := listing.NewExtractor(ticketsSelectors(), "https://tickets.example")
	require.NoError(t, err)

	listings, dropped, err := extractor.Extract("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Zero(t, dropped)
}

func TestSelectorsValidate(t *testing.T) {
	s := listing.Selectors{Title: "h3", Date: "span", Link: "a"}
	assert.ErrorIs(t, s.Validate(), listing.ErrMissingItemSelector)

	s = listing.Selectors{Item: "article", Date: "span", Link: "a"}
	assert.ErrorIs(t, s.Validate(), listing.ErrMissingTitleSelector)

	s = listing.Selectors{Item: "article", Title: "h3", Link: "a"}
	assert.ErrorIs(t, s.Validate(), listing.ErrMissingDateSelector)

	s = listing.Selectors{Item: "article", Title: "h3", Date: "span"}
	assert.ErrorIs(t, s.Validate(), listing.ErrMissingLinkSelector)
}

func TestNewVariantUnknown(t *testing.T) {
	_, err := listing.NewVariant("x", "csv-export", "https://example.com")
	assert.Error(t, err)
}

// fakeRenderer returns canned HTML without a browser session.
type fakeRenderer struct {
	html string
	err  error
}

func (f *fakeRenderer) Render(_ context.Context, _, _ string) (string, error) {
	return f.html, f.err
}

func TestAdapterFetch(t *testing.T) {
	cfg, err := listing.NewVariant("tickets", listing.VariantTickets, "https://tickets.example/bilete")
	require.NoError(t, err)

	adapter, err := listing.New(cfg, &fakeRenderer{html: ticketsPage}, logger.NewNoOp())
	require.NoError(t, err)

	result, err := adapter.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, source.KindScrapedListing, adapter.Kind())
	assert.Equal(t, dateparse.FormatNumeric, result.DateFormat)
	assert.Len(t, result.Listings, 2)
	assert.Equal(t, 2, result.DroppedIncomplete)
}

func TestAdapterFetchRenderFailure(t *testing.T) {
	cfg, err := listing.NewVariant("agenda", listing.VariantAgenda, "https://agenda.example/azi")
	require.NoError(t, err)

	adapter, err := listing.New(cfg, &fakeRenderer{err: context.DeadlineExceeded}, logger.NewNoOp())
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background())
	assert.Error(t, err)
}
