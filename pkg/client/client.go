// Package client provides the core DomainTools HTTP client with rate
// limiting, retry, response caching, and error classification.
package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/osintworks/domaintools-client/pkg/cache"
	"github.com/osintworks/domaintools-client/pkg/ratelimit"
)

// DefaultBaseURL is the production DomainTools API endpoint.
const DefaultBaseURL = "https://api.domaintools.com"

// Prometheus metrics for API client operations.
var (
	dtRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dt_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	dtRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dt_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	dtErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dt_errors_total",
		Help: "Total API errors by kind",
	}, []string{"kind"})
)

// Request is one logical API call before execution. It is immutable once
// submitted; the engine never mutates it.
type Request struct {
	// ID is an opaque correlation token, unique within a batch. For domain
	// lookups this is typically the domain name itself.
	ID string

	// Path identifies the API operation, e.g. "/v1/example.com".
	Path string

	// Params are the operation's query parameters. Credentials and the
	// request signature are attached separately at execution time.
	Params url.Values
}

// Outcome is the terminal result of executing one Request: either a parsed
// payload or a classified error, never both.
type Outcome struct {
	ID       string
	Attempts int
	Payload  map[string]any
	Err      *APIError

	// Cached is set when the payload was served from the response cache
	// without touching the network. Attempts is 0 in that case.
	Cached bool
}

// Config holds the client configuration.
type Config struct {
	// API credentials, attached to every request.
	APIKey    string
	APISecret string

	// BaseURL overrides the production API endpoint (testing, proxies).
	BaseURL string

	// Timeout bounds each individual attempt, not the whole retry loop.
	Timeout time.Duration

	// Retry is the backoff policy applied to transient failures.
	Retry RetryConfig

	// RateLimit is the shared token bucket configuration.
	RateLimit ratelimit.Config

	// Redis enables the response cache when non-nil.
	Redis *redis.Client

	// CacheTTL is how long successful lookups stay cached. The API sends
	// no cache headers, so the TTL is policy, not protocol.
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey, apiSecret string) Config {
	return Config{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		RateLimit: ratelimit.DefaultConfig(),
		CacheTTL:  5 * time.Minute,
	}
}

// Client is the DomainTools API client. All concurrent requests issued
// through one client share its rate limit bucket.
type Client struct {
	httpClient *http.Client
	bucket     *ratelimit.Bucket
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger

	// sleep waits out retry backoff; swappable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error

	// now stamps request signatures; swappable for tests.
	now func() time.Time
}

// New creates a new DomainTools API client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("api secret is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "dt-client").Logger()

	bucket, err := ratelimit.NewBucket(cfg.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		bucket: bucket,
		cache:  cacheManager,
		config: cfg,
		logger: logger,
		sleep:  sleepContext,
		now:    time.Now,
	}, nil
}

// RateLimit exposes the shared bucket state for diagnostics.
func (c *Client) RateLimit() ratelimit.State {
	return c.bucket.Snapshot()
}

// Execute runs one logical request to its terminal outcome: acquire a rate
// limit slot, send, classify, and loop under the retry policy. Classified
// failures are folded into the Outcome and never surface as Go errors; the
// returned error is non-nil only for configuration mistakes, which are
// fatal to any batch containing the request.
func (c *Client) Execute(ctx context.Context, req Request) (Outcome, error) {
	endpoint := req.Path

	startTime := time.Now()
	defer func() {
		dtRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if c.cache != nil {
		if payload, err := c.cache.Get(ctx, cache.Key{Path: req.Path, Params: req.Params}); err == nil {
			c.logger.Debug().Str("endpoint", endpoint).Str("id", req.ID).Msg("Cache hit")
			dtRequestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return Outcome{ID: req.ID, Payload: payload, Cached: true}, nil
		}
	}

	for attempt := 1; ; attempt++ {
		// Cancellation is checked at the top of every iteration so a
		// retry loop never outlives its batch.
		if err := ctx.Err(); err != nil {
			return c.cancelled(req, attempt-1, err), nil
		}

		if err := c.bucket.Acquire(ctx, 1); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return c.cancelled(req, attempt-1, ctxErr), nil
			}
			// Acquire only fails outright for unsatisfiable costs.
			return Outcome{}, &APIError{
				Kind:     KindConfiguration,
				Message:  err.Error(),
				Attempts: attempt - 1,
				Err:      err,
			}
		}

		payload, apiErr := c.attempt(ctx, req, endpoint, attempt)
		if apiErr == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			if c.cache != nil {
				if err := c.cache.Set(ctx, cache.Key{Path: req.Path, Params: req.Params}, payload); err != nil {
					c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
				}
			}
			return Outcome{ID: req.ID, Attempts: attempt, Payload: payload}, nil
		}

		if apiErr.Fatal() {
			apiErr.Attempts = attempt
			return Outcome{}, apiErr
		}
		if apiErr.Kind == KindCancelled {
			return c.cancelled(req, attempt, apiErr.Err), nil
		}

		dtErrorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()

		decision := c.config.Retry.Decide(apiErr.Kind, attempt)
		if !decision.Retry {
			apiErr.Attempts = attempt
			if Retryable(apiErr.Kind) {
				apiErr.Err = errors.Join(ErrRetryExhausted, apiErr.Err)
				dtRetryExhaustedTotal.WithLabelValues(string(apiErr.Kind)).Inc()
				c.logger.Warn().
					Str("endpoint", endpoint).
					Str("error_kind", string(apiErr.Kind)).
					Int("attempts", attempt).
					Msg("Retry attempts exhausted")
			}
			return Outcome{ID: req.ID, Attempts: attempt, Err: apiErr}, nil
		}

		dtRetriesTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		dtRetryBackoffSeconds.WithLabelValues(string(apiErr.Kind)).Observe(decision.Delay.Seconds())

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("error_kind", string(apiErr.Kind)).
			Int("attempt", attempt).
			Dur("backoff", decision.Delay).
			Msg("Retrying request after backoff")

		if err := c.sleep(ctx, decision.Delay); err != nil {
			return c.cancelled(req, attempt, err), nil
		}
	}
}

// attempt performs a single network round trip and classifies the result.
func (c *Client) attempt(ctx context.Context, req Request, endpoint string, attempt int) (map[string]any, *APIError) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, &APIError{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	httpReq = httpReq.WithContext(attemptCtx)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		kind := ClassifyTransportError(err)
		if kind == KindCancelled && ctx.Err() == nil {
			// The per-attempt deadline fired, not the caller's context.
			kind = KindNetwork
		}
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("HTTP request failed")
		dtRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{Kind: kind, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: fmt.Sprintf("read response body: %v", err), Err: err}
	}

	dtRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		kind := ClassifyStatus(resp.StatusCode)
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_kind", string(kind)).
			Msg("API request error")
		return nil, &APIError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.Status),
		}
	}

	payload, err := parsePayload(body)
	if err != nil {
		return nil, &APIError{
			Kind:       KindParse,
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
			Err:        err,
		}
	}

	return payload, nil
}

// buildRequest assembles the signed HTTP request for one attempt. Each
// attempt is signed freshly because the signature covers the timestamp.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	if req.Path == "" || !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("endpoint path must start with '/' (got %q)", req.Path)
	}

	u, err := url.Parse(c.config.BaseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("build request URL: %w", err)
	}

	params := url.Values{}
	for key, vals := range req.Params {
		for _, v := range vals {
			params.Add(key, v)
		}
	}

	timestamp := c.now().UTC().Format(time.RFC3339)
	params.Set("api_username", c.config.APIKey)
	params.Set("timestamp", timestamp)
	params.Set("signature", c.sign(timestamp, req.Path))
	u.RawQuery = params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	return httpReq, nil
}

// sign computes the HMAC-SHA1 request signature over key, timestamp, and path.
func (c *Client) sign(timestamp, path string) string {
	mac := hmac.New(sha1.New, []byte(c.config.APISecret))
	mac.Write([]byte(c.config.APIKey + timestamp + path))
	return hex.EncodeToString(mac.Sum(nil))
}

// cancelled builds the outcome for an externally cancelled request.
func (c *Client) cancelled(req Request, attempts int, cause error) Outcome {
	return Outcome{
		ID:       req.ID,
		Attempts: attempts,
		Err: &APIError{
			Kind:     KindCancelled,
			Message:  "cancelled before completion",
			Attempts: attempts,
			Err:      errors.Join(ErrCancelled, cause),
		},
	}
}

// parsePayload decodes the API's JSON envelope. Successful responses wrap
// the data in a top-level "response" object.
func parsePayload(body []byte) (map[string]any, error) {
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if inner, ok := envelope["response"].(map[string]any); ok {
		return inner, nil
	}
	return envelope, nil
}

// errorMessage extracts the API error envelope message, falling back to the
// HTTP status line.
func errorMessage(body []byte, fallback string) string {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still yield to cancellation between attempts.
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetSleep overrides the backoff sleep function (for testing).
func (c *Client) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	c.sleep = sleep
}
