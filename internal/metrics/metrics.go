// Package metrics provides metrics collection and reporting functionality.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citypulse/cityingest/internal/ingest"
)

// Collector exposes ingestion run counters and gauges.
type Collector struct {
	registry *prometheus.Registry

	recordsFetched  *prometheus.CounterVec
	recordsInserted prometheus.Counter
	duplicates      prometheus.Counter
	rejected        prometheus.Counter
	droppedDates    prometheus.Counter
	filteredOut     prometheus.Counter
	storeErrors     prometheus.Counter
	sourceFailures  *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRunTime     prometheus.Gauge
	lastRunFailed   prometheus.Gauge
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		recordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "records_fetched_total",
			Help:      "Records fetched from sources, before filtering.",
		}, []string{"source"}),
		recordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "records_inserted_total",
			Help:      "New records persisted to the store.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "records_duplicate_total",
			Help:      "Records skipped because their key already existed.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "records_rejected_total",
			Help:      "Records rejected for violating entity invariants.",
		}),
		droppedDates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "records_unparseable_date_total",
			Help:      "Scraped records dropped for unparseable dates.",
		}),
		filteredOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "records_filtered_out_total",
			Help:      "Scraped records outside the ingestion date window.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "store_errors_total",
			Help:      "Records lost to storage failures.",
		}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityingest",
			Name:      "source_failures_total",
			Help:      "Fetch failures by source.",
		}, []string{"source"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cityingest",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cityingest",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastRunFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cityingest",
			Name:      "last_run_total_failure",
			Help:      "1 when every source failed in the last run.",
		}),
	}

	c.registry.MustRegister(
		c.recordsFetched,
		c.recordsInserted,
		c.duplicates,
		c.rejected,
		c.droppedDates,
		c.filteredOut,
		c.storeErrors,
		c.sourceFailures,
		c.runDuration,
		c.lastRunTime,
		c.lastRunFailed,
	)
	return c
}

// Observe records one finished run on the collector.
func (c *Collector) Observe(summary *ingest.RunSummary) {
	for _, src := range summary.Sources {
		c.recordsFetched.WithLabelValues(src.Name).Add(float64(src.Fetched))
		if !src.Succeeded {
			c.sourceFailures.WithLabelValues(src.Name).Inc()
		}
	}
	c.recordsInserted.Add(float64(summary.Inserted))
	c.duplicates.Add(float64(summary.Duplicates))
	c.rejected.Add(float64(summary.Rejected))
	c.droppedDates.Add(float64(summary.DroppedUnparseable))
	c.filteredOut.Add(float64(summary.FilteredOut))
	c.storeErrors.Add(float64(summary.StoreErrors))
	c.runDuration.Observe(summary.Duration().Seconds())
	c.lastRunTime.Set(float64(summary.FinishedAt.Unix()))
	if summary.TotalFailure {
		c.lastRunFailed.Set(1)
	} else {
		c.lastRunFailed.Set(0)
	}
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve runs a scrape endpoint on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
