package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/cityingest/internal/dateparse"
	"github.com/citypulse/cityingest/internal/domain"
	"github.com/citypulse/cityingest/internal/logger"
	"github.com/citypulse/cityingest/internal/source"
	"github.com/citypulse/cityingest/internal/window"
)

// Pipeline defaults. Headless-browser sessions are expensive; the
// source pool stays small.
const (
	DefaultMaxConcurrentSources = 2
	DefaultSourceTimeout        = 90 * time.Second
)

// Config holds orchestrator settings for a run.
type Config struct {
	// MaxConcurrentSources bounds concurrently fetching adapters
	MaxConcurrentSources int
	// SourceTimeout caps one adapter's fetch
	SourceTimeout time.Duration
	// RunTimeout caps the whole run; zero means no cap
	RunTimeout time.Duration
	// WindowOffsets are the day deltas scraped events are filtered to
	WindowOffsets []int
}

// Pipeline sequences adapters, normalization, filtering, and upsert for
// one run. Per-source failures are isolated; the run proceeds with
// whatever succeeded and reports the rest in the summary.
type Pipeline struct {
	cfg      Config
	sources  []source.Source
	parser   *dateparse.Parser
	upserter *Upserter
	loc      *time.Location
	logger   logger.Interface
	now      func() time.Time
}

// NewPipeline creates an orchestrator over the given sources.
func NewPipeline(
	cfg Config,
	sources []source.Source,
	parser *dateparse.Parser,
	upserter *Upserter,
	loc *time.Location,
	log logger.Interface,
) *Pipeline {
	if cfg.MaxConcurrentSources <= 0 {
		cfg.MaxConcurrentSources = DefaultMaxConcurrentSources
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultSourceTimeout
	}
	if len(cfg.WindowOffsets) == 0 {
		cfg.WindowOffsets = window.DefaultOffsets
	}
	return &Pipeline{
		cfg:      cfg,
		sources:  sources,
		parser:   parser,
		upserter: upserter,
		loc:      loc,
		logger:   log.WithComponent("pipeline"),
		now:      time.Now,
	}
}

// fetchOutcome pairs one source's result with its status for a run.
type fetchOutcome struct {
	status SourceStatus
	result *source.Result
}

// Run executes one pipeline pass and returns its summary. A run in
// which every source fails returns an empty, flagged summary rather
// than an error; the caller decides whether that is alert-worthy.
func (p *Pipeline) Run(ctx context.Context) *RunSummary {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	log := p.logger.WithRunID(summary.RunID)

	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	log.Info("pipeline run starting", "sources", len(p.sources))

	outcomes := p.fetchAll(ctx, log)

	for _, o := range outcomes {
		summary.Sources = append(summary.Sources, o.status)
		summary.Fetched += o.status.Fetched
		summary.DroppedIncomplete += o.status.DroppedIncomplete
	}

	if summary.FailedSources() == len(p.sources) && len(p.sources) > 0 {
		summary.TotalFailure = true
		summary.FinishedAt = p.now()
		log.Error("all sources failed, run produced no records")
		return summary
	}

	filter := window.New(p.now(), p.cfg.WindowOffsets, p.loc)

	for _, o := range outcomes {
		if !o.status.Succeeded {
			continue
		}
		p.processPlaces(ctx, o, summary, log)
		p.processListings(ctx, o, filter, summary, log)
	}

	summary.FinishedAt = p.now()
	log.Info("pipeline run finished",
		"inserted", summary.Inserted,
		"duplicates", summary.Duplicates,
		"rejected", summary.Rejected,
		"failed_sources", summary.FailedSources(),
	)

	return summary
}

// fetchAll runs every source under the concurrency bound, each with its
// own timeout. Adapter failures become failed statuses, never panics or
// run aborts.
func (p *Pipeline) fetchAll(ctx context.Context, log logger.Interface) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(p.sources))
	sem := make(chan struct{}, p.cfg.MaxConcurrentSources)
	var wg sync.WaitGroup

	for i, src := range p.sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()

			status := SourceStatus{Name: src.Name(), Kind: src.Kind()}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				status.Error = ctx.Err().Error()
				outcomes[i] = fetchOutcome{status: status}
				return
			}

			srcCtx, cancel := context.WithTimeout(ctx, p.cfg.SourceTimeout)
			defer cancel()

			started := time.Now()
			result, err := src.Fetch(srcCtx)
			if err != nil {
				status.Error = err.Error()
				log.Warn("source fetch failed",
					"source", src.Name(),
					"error", err,
					"duration", time.Since(started),
				)
				outcomes[i] = fetchOutcome{status: status}
				return
			}

			status.Succeeded = true
			status.Fetched = len(result.Places) + len(result.Listings)
			status.DroppedIncomplete = result.DroppedIncomplete
			log.Info("source fetch complete",
				"source", src.Name(),
				"records", status.Fetched,
				"duration", time.Since(started),
			)
			outcomes[i] = fetchOutcome{status: status, result: result}
		}(i, src)
	}

	wg.Wait()
	return outcomes
}

// processPlaces upserts a structured source's places. Places carry no
// temporal dimension and bypass the window filter.
func (p *Pipeline) processPlaces(ctx context.Context, o fetchOutcome, summary *RunSummary, log logger.Interface) {
	for _, place := range o.result.Places {
		res, err := p.upserter.UpsertPlace(ctx, place)
		if err != nil {
			summary.StoreErrors++
			log.Error("place upsert failed", "place_id", place.PlaceID, "error", err)
			continue
		}
		summary.record(res)
	}
}

// processListings normalizes, filters, and upserts a scraped source's
// listings. An unparseable date drops the record and counts it; it
// never halts the run.
func (p *Pipeline) processListings(
	ctx context.Context,
	o fetchOutcome,
	filter *window.Filter,
	summary *RunSummary,
	log logger.Interface,
) {
	for _, raw := range o.result.Listings {
		startsAt, err := p.parser.Parse(raw.RawDate, o.result.DateFormat)
		if err != nil {
			summary.DroppedUnparseable++
			log.Debug("dropped listing with unparseable date",
				"source", o.status.Name,
				"raw_date", raw.RawDate,
			)
			continue
		}
		summary.Normalized++

		if !filter.Contains(startsAt) {
			summary.FilteredOut++
			continue
		}

		event := toEvent(o.status.Name, raw, startsAt)
		res, err := p.upserter.UpsertEvent(ctx, event)
		if err != nil {
			summary.StoreErrors++
			log.Error("event upsert failed", "external_key", event.ExternalKey, "error", err)
			continue
		}
		summary.record(res)
	}
}

// record tallies one upsert result on the summary.
func (s *RunSummary) record(res UpsertResult) {
	switch res.Outcome {
	case OutcomeInserted:
		s.Inserted++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeRejected:
		s.recordRejection(res.Reason)
	}
}

// toEvent maps a raw listing to the canonical event shape.
func toEvent(sourceName string, raw domain.RawListing, startsAt time.Time) *domain.Event {
	event := &domain.Event{
		ExternalKey: domain.NewExternalKey(sourceName, raw.NativeID),
		Title:       raw.Title,
		StartsAt:    startsAt,
		Location:    raw.Location,
		SourceName:  sourceName,
		SourceURL:   raw.URL,
	}
	if raw.ImageURL != "" {
		event.ImageURL = &raw.ImageURL
	}
	return event
}
