package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/cityingest/internal/dateparse"
	"github.com/citypulse/cityingest/internal/domain"
	"github.com/citypulse/cityingest/internal/logger"
	"github.com/citypulse/cityingest/internal/source"
)

// mockSource is a hand-rolled source.Source returning canned data.
type mockSource struct {
	name   string
	kind   source.Kind
	result *source.Result
	err    error
}

func (m *mockSource) Name() string      { return m.name }
func (m *mockSource) Kind() source.Kind { return m.kind }

func (m *mockSource) Fetch(context.Context) (*source.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// memoryEventStore remembers inserted keys across runs.
type memoryEventStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{keys: map[string]struct{}{}}
}

func (m *memoryEventStore) Exists(_ context.Context, externalKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[externalKey]
	return ok, nil
}

func (m *memoryEventStore) Insert(_ context.Context, event *domain.Event) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[event.ExternalKey]; ok {
		return false, nil
	}
	m.keys[event.ExternalKey] = struct{}{}
	return true, nil
}

// fixedNow is the reference instant for window math in these tests.
var fixedNow = time.Date(2026, 5, 19, 14, 30, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, sources []source.Source, events EventStore) *Pipeline {
	t.Helper()
	up := NewUpserter(&mockPlaceStore{}, events, logger.NewNoOp())
	p := NewPipeline(
		Config{MaxConcurrentSources: 2, SourceTimeout: 5 * time.Second},
		sources,
		dateparse.New(time.UTC),
		up,
		time.UTC,
		logger.NewNoOp(),
	)
	p.now = func() time.Time { return fixedNow }
	return p
}

func listing(id, rawDate string) domain.RawListing {
	return domain.RawListing{
		NativeID: id,
		Title:    "Event " + id,
		RawDate:  rawDate,
		Location: "Hall A",
		URL:      "https://tickets.example.com/events/" + id,
	}
}

func TestRunProcessesListingsInWindow(t *testing.T) {
	src := &mockSource{
		name: "tickets",
		kind: source.KindScrapedListing,
		result: &source.Result{
			DateFormat: dateparse.FormatNumeric,
			Listings: []domain.RawListing{
				listing("a", "19.05.2026, 20:00"), // today
				listing("b", "22.05.2026"),        // day +3
				listing("c", "24.05.2026"),        // day +5, outside
				listing("d", "not a date"),
			},
		},
	}
	store := newMemoryEventStore()
	p := newTestPipeline(t, []source.Source{src}, store)

	summary := p.Run(context.Background())

	require.False(t, summary.TotalFailure)
	assert.Equal(t, 4, summary.Fetched)
	assert.Equal(t, 3, summary.Normalized)
	assert.Equal(t, 1, summary.DroppedUnparseable)
	assert.Equal(t, 1, summary.FilteredOut)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
}

func TestRunIsIdempotent(t *testing.T) {
	src := &mockSource{
		name: "tickets",
		kind: source.KindScrapedListing,
		result: &source.Result{
			DateFormat: dateparse.FormatNumeric,
			Listings: []domain.RawListing{
				listing("a", "19.05.2026, 20:00"),
				listing("b", "20.05.2026"),
			},
		},
	}
	store := newMemoryEventStore()
	p := newTestPipeline(t, []source.Source{src}, store)

	first := p.Run(context.Background())
	second := p.Run(context.Background())

	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Duplicates)
}

func TestRunIsolatesSourceFailure(t *testing.T) {
	good := &mockSource{
		name: "tickets",
		kind: source.KindScrapedListing,
		result: &source.Result{
			DateFormat: dateparse.FormatNumeric,
			Listings:   []domain.RawListing{listing("a", "19.05.2026")},
		},
	}
	broken := &mockSource{
		name: "agenda",
		kind: source.KindScrapedListing,
		err:  errors.New("render timed out"),
	}
	alsoGood := &mockSource{
		name: "tickets-2",
		kind: source.KindScrapedListing,
		result: &source.Result{
			DateFormat: dateparse.FormatNumeric,
			Listings:   []domain.RawListing{listing("b", "20.05.2026")},
		},
	}
	p := newTestPipeline(t, []source.Source{good, broken, alsoGood}, newMemoryEventStore())

	summary := p.Run(context.Background())

	require.False(t, summary.TotalFailure)
	assert.Equal(t, 1, summary.FailedSources())
	assert.Equal(t, 2, summary.Inserted)

	require.Len(t, summary.Sources, 3)
	for _, st := range summary.Sources {
		if st.Name == "agenda" {
			assert.False(t, st.Succeeded)
			assert.Contains(t, st.Error, "render timed out")
		} else {
			assert.True(t, st.Succeeded)
		}
	}
}

func TestRunFlagsTotalFailure(t *testing.T) {
	sources := []source.Source{
		&mockSource{name: "tickets", kind: source.KindScrapedListing, err: errors.New("boom")},
		&mockSource{name: "agenda", kind: source.KindScrapedListing, err: errors.New("boom")},
	}
	p := newTestPipeline(t, sources, newMemoryEventStore())

	summary := p.Run(context.Background())

	assert.True(t, summary.TotalFailure)
	assert.Equal(t, 2, summary.FailedSources())
	assert.Equal(t, 0, summary.Inserted)
	assert.False(t, summary.FinishedAt.IsZero())
}

func TestRunPlacesBypassWindowFilter(t *testing.T) {
	place := validPlace()
	src := &mockSource{
		name: "places",
		kind: source.KindStructuredAPI,
		result: &source.Result{
			Places: []*domain.Place{place},
		},
	}
	placeStore := &mockPlaceStore{}
	up := NewUpserter(placeStore, newMemoryEventStore(), logger.NewNoOp())
	p := NewPipeline(
		Config{},
		[]source.Source{src},
		dateparse.New(time.UTC),
		up,
		time.UTC,
		logger.NewNoOp(),
	)
	p.now = func() time.Time { return fixedNow }

	summary := p.Run(context.Background())

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 0, summary.FilteredOut)
	assert.Len(t, placeStore.inserted, 1)
}

func TestRunCountsRejections(t *testing.T) {
	bad := listing("x", "19.05.2026")
	bad.Title = ""
	src := &mockSource{
		name: "tickets",
		kind: source.KindScrapedListing,
		result: &source.Result{
			DateFormat: dateparse.FormatNumeric,
			Listings:   []domain.RawListing{bad},
		},
	}
	p := newTestPipeline(t, []source.Source{src}, newMemoryEventStore())

	summary := p.Run(context.Background())

	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Rejected)
	assert.NotEmpty(t, summary.RejectedReasons)
}

func TestRunAggregatesDroppedIncomplete(t *testing.T) {
	src := &mockSource{
		name: "tickets",
		kind: source.KindScrapedListing,
		result: &source.Result{
			DateFormat:        dateparse.FormatNumeric,
			Listings:          []domain.RawListing{listing("a", "19.05.2026")},
			DroppedIncomplete: 3,
		},
	}
	p := newTestPipeline(t, []source.Source{src}, newMemoryEventStore())

	summary := p.Run(context.Background())

	assert.Equal(t, 3, summary.DroppedIncomplete)
}
