// Package metrics provides the Prometheus registry used by the crawler.
// Collectors are defined in their respective packages (client, crawler) and
// registered through promauto; this package documents them and exports them.
//
// A crawl is a short-lived process, so metrics are not scraped. Instead they
// are written once at exit in the text exposition format, suitable for the
// node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the crawler.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back everything registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes all gathered metrics to path. The file is written
// atomically (temp file + rename).
func WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics file path is empty")
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Bulk API Metrics (pkg/client):
//   - bulk_requests_total{outcome} (Counter): calls by outcome (ok, api_error, transport_error)
//   - bulk_request_duration_seconds (Histogram): call duration
//   - bulk_batch_size (Histogram): widget requests per call
//
// Crawl Metrics (pkg/crawler):
//   - bulk_widget_requests_total{outcome} (Counter): widget requests by outcome (ok, failed, unmatched)
//
// Example Prometheus Queries:
//
//   # Widget success ratio
//   bulk_widget_requests_total{outcome="ok"} / ignoring(outcome) sum(bulk_widget_requests_total)
//
//   # Failed batches
//   bulk_requests_total{outcome="api_error"}
