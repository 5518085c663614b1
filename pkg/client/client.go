// Package client provides the Bulk API HTTP client: one form-encoded POST per
// batch of widget requests, decoded into a BulkResponse.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/bulk-crawler/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Bulk API calls.
var (
	bulkRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_requests_total",
		Help: "Total Bulk API calls by outcome",
	}, []string{"outcome"})

	bulkRequestDuration = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "bulk_request_duration_seconds",
		Help:    "Bulk API call duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	bulkBatchSize = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "bulk_batch_size",
		Help:    "Number of widget requests per Bulk API call",
		Buckets: []float64{1, 10, 25, 50, 75, 100},
	})
)

// Outcome labels for bulk_requests_total.
const (
	OutcomeOK             = "ok"
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
)

// DefaultEndpoint is the public Bulk API URL.
const DefaultEndpoint = "http://api.trustyou.com/bulk"

// CodeOK is the success code used in both the outer and the per-request meta.
const CodeOK = 200

// Form field names of a Bulk API call.
const (
	FieldRequestList = "request_list"
	FieldKey         = "key"
)

// Client talks to the Bulk API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the absolute Bulk API URL.
	Endpoint string

	// APIKey is sent as the "key" form field on every call (REQUIRED).
	APIKey string

	// UserAgent header, optional.
	UserAgent string

	// Timeout per call. Zero leaves the transport defaults in place.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration for the public Bulk API.
func DefaultConfig(apiKey string) Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		APIKey:    apiKey,
		UserAgent: "bulk-crawler/0.1.0",
	}
}

// New creates a new Bulk API client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("endpoint must be an absolute URL (got %q)", cfg.Endpoint)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "bulk-client").Logger(),
	}, nil
}

// Submit sends one batch of widget request paths to the Bulk API and decodes
// the response. Connection failures, unreadable bodies, non-JSON bodies and
// bodies missing a required field are returned as *TransportError. An error code inside the decoded response is
// not an error here; callers inspect BulkResponse.Code.
func (c *Client) Submit(ctx context.Context, requests []string) (*BulkResponse, error) {
	startTime := time.Now()
	defer func() {
		bulkRequestDuration.Observe(time.Since(startTime).Seconds())
	}()
	bulkBatchSize.Observe(float64(len(requests)))

	req, err := c.newRequest(ctx, requests)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", c.config.Endpoint).
		Int("batch_size", len(requests)).
		Msg("Submitting bulk request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", c.config.Endpoint).Msg("HTTP request failed")
		bulkRequestsTotal.WithLabelValues(OutcomeTransportError).Inc()
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		bulkRequestsTotal.WithLabelValues(OutcomeTransportError).Inc()
		return nil, &TransportError{Op: "read", StatusCode: resp.StatusCode, Err: err}
	}

	bulkResp, err := decodeBulkResponse(body)
	if err != nil {
		bulkRequestsTotal.WithLabelValues(OutcomeTransportError).Inc()
		return nil, &TransportError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}

	if bulkResp.Code() == CodeOK {
		bulkRequestsTotal.WithLabelValues(OutcomeOK).Inc()
	} else {
		bulkRequestsTotal.WithLabelValues(OutcomeAPIError).Inc()
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("code", bulkResp.Code()).
		Int("responses", len(bulkResp.Responses())).
		Dur("duration", time.Since(startTime)).
		Msg("Bulk request complete")

	return bulkResp, nil
}

// newRequest builds the form-encoded POST for one batch.
func (c *Client) newRequest(ctx context.Context, requests []string) (*http.Request, error) {
	if requests == nil {
		requests = []string{}
	}
	list, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("encode request list: %w", err)
	}

	form := url.Values{}
	form.Set(FieldRequestList, string(list))
	form.Set(FieldKey, c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return req, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
