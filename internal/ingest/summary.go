// Package ingest contains the dedup/upsert engine and the pipeline
// orchestrator that sequences sources, normalization, filtering, and
// persistence for one run.
package ingest

import (
	"fmt"
	"time"

	"github.com/citypulse/cityingest/internal/source"
)

// Outcome classifies the result of upserting one record.
type Outcome string

const (
	// OutcomeInserted means the record was new and persisted.
	OutcomeInserted Outcome = "inserted"
	// OutcomeDuplicate means a record with the same external key
	// already existed; nothing was modified.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected means the record violated an entity invariant
	// and was not persisted.
	OutcomeRejected Outcome = "rejected"
)

// SourceStatus reports one adapter's outcome within a run.
type SourceStatus struct {
	// Name of the source
	Name string `json:"name"`
	// Kind of the source
	Kind source.Kind `json:"kind"`
	// Succeeded is false when the fetch failed or timed out
	Succeeded bool `json:"succeeded"`
	// Error holds the fetch failure, empty on success
	Error string `json:"error,omitempty"`
	// Fetched is the number of raw records the source produced
	Fetched int `json:"fetched"`
	// DroppedIncomplete counts items dropped at extraction time
	DroppedIncomplete int `json:"dropped_incomplete"`
}

// RunSummary is the ephemeral report of one pipeline execution.
type RunSummary struct {
	// RunID correlates the summary with log lines
	RunID string `json:"run_id"`
	// StartedAt and FinishedAt bound the run
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Sources holds per-adapter outcomes
	Sources []SourceStatus `json:"sources"`
	// Fetched is the total raw record count across succeeded sources
	Fetched int `json:"fetched"`
	// Normalized is the number of listings whose date parsed
	Normalized int `json:"normalized"`
	// DroppedIncomplete counts extraction-time drops across sources
	DroppedIncomplete int `json:"dropped_incomplete"`
	// DroppedUnparseable counts normalization-time date failures
	DroppedUnparseable int `json:"dropped_unparseable_date"`
	// FilteredOut counts events outside the date window
	FilteredOut int `json:"filtered_out"`
	// Inserted, Duplicates, and Rejected count upsert outcomes
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	// RejectedReasons tallies invariant violations by reason
	RejectedReasons map[string]int `json:"rejected_reasons,omitempty"`
	// StoreErrors counts records lost to storage failures
	StoreErrors int `json:"store_errors"`
	// TotalFailure is set when every source failed
	TotalFailure bool `json:"total_failure"`
}

// FailedSources returns the number of sources that did not succeed.
func (s *RunSummary) FailedSources() int {
	failed := 0
	for _, src := range s.Sources {
		if !src.Succeeded {
			failed++
		}
	}
	return failed
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// String renders the one-line human summary printed after a run.
func (s *RunSummary) String() string {
	return fmt.Sprintf(
		"run=%s sources=%d failed=%d fetched=%d normalized=%d dropped_date=%d filtered=%d inserted=%d duplicates=%d rejected=%d duration=%.2fs",
		s.RunID, len(s.Sources), s.FailedSources(), s.Fetched, s.Normalized,
		s.DroppedUnparseable, s.FilteredOut, s.Inserted, s.Duplicates, s.Rejected,
		s.Duration().Seconds(),
	)
}

// recordRejection tallies one invariant violation.
func (s *RunSummary) recordRejection(reason string) {
	if s.RejectedReasons == nil {
		s.RejectedReasons = make(map[string]int)
	}
	s.Rejected++
	s.RejectedReasons[reason]++
}
