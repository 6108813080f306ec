// Package metrics provides the Prometheus collectors for a scrape run.
//
// A run is a short-lived batch job, so the collectors live in their own
// registry and are written in text exposition format to a file for the
// node_exporter textfile collector rather than served over HTTP.
//
// Metrics:
//   - holdings_scrape_pages_total (Counter): table pages extracted
//   - holdings_scrape_rows_extracted_total (Counter): raw rows extracted, before filtering
//   - holdings_scrape_rows_valid (Gauge): rows kept by the validator in the last successful run
//   - holdings_scrape_duration_seconds (Gauge): wall-clock duration of the last run
//   - holdings_scrape_failures_total{kind} (Counter): terminal failures by kind
//   - holdings_scrape_last_success_timestamp_seconds (Gauge): completion time of the last successful run
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the scrape metrics registered on one registry.
type Collector struct {
	registry *prometheus.Registry

	Pages         prometheus.Counter
	RowsExtracted prometheus.Counter
	RowsValid     prometheus.Gauge
	Duration      prometheus.Gauge
	Failures      *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
}

// NewCollector creates the collectors on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		Pages: factory.NewCounter(prometheus.CounterOpts{
			Name: "holdings_scrape_pages_total",
			Help: "Total number of holdings table pages extracted",
		}),
		RowsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "holdings_scrape_rows_extracted_total",
			Help: "Total number of raw table rows extracted before filtering",
		}),
		RowsValid: factory.NewGauge(prometheus.GaugeOpts{
			Name: "holdings_scrape_rows_valid",
			Help: "Number of valid holdings rows in the last successful run",
		}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "holdings_scrape_duration_seconds",
			Help: "Wall-clock duration of the last scrape run",
		}),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holdings_scrape_failures_total",
				Help: "Total number of terminal scrape failures by kind",
			},
			[]string{"kind"}, // "tab_not_found", "table_load_timeout", "navigation_failure", "empty_result_export", "other"
		),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "holdings_scrape_last_success_timestamp_seconds",
			Help: "Unix time the last successful scrape completed",
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// PageExtracted records one extracted page and its raw row count.
func (c *Collector) PageExtracted(page, rows int) {
	c.Pages.Inc()
	c.RowsExtracted.Add(float64(rows))
}

// RunSucceeded records a completed run.
func (c *Collector) RunSucceeded(valid int, duration time.Duration, finished time.Time) {
	c.RowsValid.Set(float64(valid))
	c.Duration.Set(duration.Seconds())
	c.LastSuccess.Set(float64(finished.Unix()))
}

// RunFailed records a terminal failure of the given kind.
func (c *Collector) RunFailed(kind string, duration time.Duration) {
	c.Failures.WithLabelValues(kind).Inc()
	c.Duration.Set(duration.Seconds())
}

// WriteTextfile writes all collectors to path in text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
