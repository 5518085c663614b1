// Package crawler drives a crawl: identifiers in, one Bulk API call per batch,
// per-request outcomes reported on stdout (successes) and the log (failures).
package crawler

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/Sternrassler/bulk-crawler/pkg/batch"
	"github.com/Sternrassler/bulk-crawler/pkg/client"
	"github.com/Sternrassler/bulk-crawler/pkg/metrics"
	"github.com/Sternrassler/bulk-crawler/pkg/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var widgetRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
	Name: "bulk_widget_requests_total",
	Help: "Total widget requests by reported outcome",
}, []string{"outcome"})

// Outcome labels for bulk_widget_requests_total.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeUnmatched = "unmatched"
)

// Submitter sends one batch of request paths to the Bulk API.
type Submitter interface {
	Submit(ctx context.Context, requests []string) (*client.BulkResponse, error)
}

// Options configures a Crawler. Zero values select the defaults.
type Options struct {
	// Stdout receives one "Ok: <request>" line per confirmed request (default os.Stdout).
	Stdout io.Writer

	// Logger receives progress and failure events (default: global logger).
	Logger *zerolog.Logger

	// BatchSize is the number of requests per call (default batch.MaxBulkSize).
	BatchSize int
}

// Summary counts what happened during a run.
type Summary struct {
	Batches       int
	FailedBatches int
	Requests      int
	Succeeded     int
	Failed        int
	Unmatched     int
}

// Crawler submits batches sequentially and reports the outcomes.
type Crawler struct {
	submitter Submitter
	stdout    io.Writer
	logger    zerolog.Logger
	batchSize int
}

// New creates a Crawler.
func New(submitter Submitter, opts Options) (*Crawler, error) {
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if opts.BatchSize < 0 || opts.BatchSize > batch.MaxBulkSize {
		return nil, fmt.Errorf("batch size must be between 1 and %d (got %d)", batch.MaxBulkSize, opts.BatchSize)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.MaxBulkSize
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	logger := log.With().Str("component", "crawler").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Crawler{
		submitter: submitter,
		stdout:    opts.Stdout,
		logger:    logger,
		batchSize: opts.BatchSize,
	}, nil
}

// Run crawls every (identifier, widget, language) combination. Batches are
// processed one at a time, in order. API-level failures are logged and the
// run continues; a transport fault or context cancellation ends the run and
// is returned together with the summary so far.
func (c *Crawler) Run(ctx context.Context, ids iter.Seq[string], widgets, languages []string) (Summary, error) {
	var sum Summary

	c.logger.Info().
		Strs("widgets", widgets).
		Strs("languages", languages).
		Msgf("Crawling widgets %s in languages %s from Bulk API",
			strings.Join(widgets, ", "), strings.Join(languages, ", "))

	requests := request.Generate(ids, widgets, languages)

	for requestList := range batch.Split(requests, c.batchSize) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sum.Batches++
		sum.Requests += len(requestList)

		resp, err := c.submitter.Submit(ctx, requestList)
		if err != nil {
			return sum, fmt.Errorf("batch %d: %w", sum.Batches, err)
		}

		c.report(requestList, resp, &sum)
	}

	c.logger.Info().
		Int("batches", sum.Batches).
		Int("failed_batches", sum.FailedBatches).
		Int("requests", sum.Requests).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Int("unmatched", sum.Unmatched).
		Msg("Crawl complete")

	return sum, nil
}

// report correlates one batch with its response by position.
func (c *Crawler) report(requestList []string, resp *client.BulkResponse, sum *Summary) {
	if resp.Code() != client.CodeOK {
		c.logger.Warn().
			Int("batch", sum.Batches).
			Int("code", resp.Code()).
			Msgf("Bulk request failed with error %d", resp.Code())
		sum.FailedBatches++
		sum.Unmatched += len(requestList)
		widgetRequestsTotal.WithLabelValues(OutcomeUnmatched).Add(float64(len(requestList)))
		return
	}

	responses := resp.Responses()
	n := min(len(requestList), len(responses))
	if len(requestList) != len(responses) {
		c.logger.Warn().
			Int("batch", sum.Batches).
			Int("requests", len(requestList)).
			Int("responses", len(responses)).
			Msg("Response list length does not match batch, pairing up to the shorter one")
		if unmatched := len(requestList) - n; unmatched > 0 {
			sum.Unmatched += unmatched
			widgetRequestsTotal.WithLabelValues(OutcomeUnmatched).Add(float64(unmatched))
		}
	}

	for i, req := range requestList[:n] {
		code := responses[i].Code()
		if code != client.CodeOK {
			c.logger.Warn().
				Str("request", req).
				Int("code", code).
				Msgf("Widget request %s failed with error %d", req, code)
			sum.Failed++
			widgetRequestsTotal.WithLabelValues(OutcomeFailed).Inc()
			continue
		}

		fmt.Fprintf(c.stdout, "Ok: %s\n", req)
		sum.Succeeded++
		widgetRequestsTotal.WithLabelValues(OutcomeOK).Inc()
	}
}
