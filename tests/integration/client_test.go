package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osintworks/domaintools-client/internal/testutil"
	"github.com/osintworks/domaintools-client/pkg/batch"
	"github.com/osintworks/domaintools-client/pkg/client"
	"github.com/osintworks/domaintools-client/pkg/ratelimit"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// newIntegrationClient wires the client to the mock server with fast retry
// delays and a wide-open rate limit.
func newIntegrationClient(t *testing.T, mock *testutil.MockAPI, redisClient *redis.Client) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("integration-key", "integration-secret")
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 5 * time.Second
	cfg.Retry = client.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  50 * time.Millisecond,
		MaxDelay:   200 * time.Millisecond,
	}
	cfg.RateLimit = ratelimit.Config{RefillRate: 1000, Burst: 100}
	cfg.Redis = redisClient
	cfg.CacheTTL = time.Minute

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

// TestFullRequestFlow tests the complete flow: rate limit admission, cache
// miss, API request, cache store, then a cache hit on the second lookup.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetProfileResponse("example.com", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"response": {"registrant": "Example Corp"}}`,
	})

	c := newIntegrationClient(t, mock, redisClient)
	ctx := context.Background()

	// Request 1: cache miss, goes to the API.
	outcome1, err := c.Execute(ctx, client.DomainProfileRequest("example.com"))
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	if outcome1.Err != nil {
		t.Fatalf("Request 1 outcome error: %v", outcome1.Err)
	}
	if outcome1.Cached {
		t.Error("Request 1 should not be served from cache")
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("After request 1: API requests = %d, want 1", mock.GetRequestCount())
	}

	// Request 2: served from Redis without touching the API.
	outcome2, err := c.Execute(ctx, client.DomainProfileRequest("example.com"))
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if !outcome2.Cached {
		t.Error("Request 2 should be served from cache")
	}
	if outcome2.Payload["registrant"] != "Example Corp" {
		t.Errorf("Cached payload registrant = %v, want Example Corp", outcome2.Payload["registrant"])
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("After request 2: API requests = %d, want 1 (cache hit)", mock.GetRequestCount())
	}
}

// TestCacheExpiration tests that entries vanish after the TTL and the next
// lookup goes back to the API.
func TestCacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetProfileResponse("shortlived.com", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"response": {"registrant": "Shortlived Inc"}}`,
	})

	cfg := client.DefaultConfig("integration-key", "integration-secret")
	cfg.BaseURL = mock.URL()
	cfg.RateLimit = ratelimit.Config{RefillRate: 1000, Burst: 100}
	cfg.Redis = redisClient
	cfg.CacheTTL = 500 * time.Millisecond

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	req := client.DomainProfileRequest("shortlived.com")

	if _, err := c.Execute(ctx, req); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	time.Sleep(time.Second)

	outcome, err := c.Execute(ctx, req)
	if err != nil {
		t.Fatalf("Request after expiry failed: %v", err)
	}
	if outcome.Cached {
		t.Error("Expired entry must not be served from cache")
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("API requests = %d, want 2 (cache expired)", mock.GetRequestCount())
	}
}

// TestRetryThenSuccess tests that transient 5xx responses are retried with
// backoff until the API recovers.
func TestRetryThenSuccess(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.FailThenSucceed("/v1/flaky.com", http.StatusServiceUnavailable, 2,
		`{"response": {"registrant": "Flaky LLC"}}`)

	c := newIntegrationClient(t, mock, redisClient)

	outcome, err := c.Execute(context.Background(), client.DomainProfileRequest("flaky.com"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if outcome.Err != nil {
		t.Fatalf("Outcome error: %v", outcome.Err)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3 (2 failures + 1 success)", outcome.Attempts)
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("API requests = %d, want 3", mock.GetRequestCount())
	}
}

// TestNoRetry4xxErrors tests that client errors are terminal on the first
// attempt and never cached.
func TestNoRetry4xxErrors(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/v1/unknown.invalid", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": {"code": 404, "message": "domain not found"}}`,
	})

	c := newIntegrationClient(t, mock, redisClient)
	ctx := context.Background()

	outcome, err := c.Execute(ctx, client.DomainProfileRequest("unknown.invalid"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.Err == nil || outcome.Err.Kind != client.KindInvalidRequest {
		t.Fatalf("outcome error = %v, want invalid_request", outcome.Err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("API requests = %d, want 1 (no retries for 4xx)", mock.GetRequestCount())
	}

	// A second lookup must hit the API again: failures are never cached.
	if _, err := c.Execute(ctx, client.DomainProfileRequest("unknown.invalid")); err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("API requests = %d, want 2 (failures not cached)", mock.GetRequestCount())
	}
}

// TestBatchEndToEnd runs a mixed batch through the real client: successes,
// a terminal failure, and cache interplay, with results in input order.
func TestBatchEndToEnd(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetProfileResponse("a.com", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"response": {"registrant": "A Corp"}}`,
	})
	mock.SetResponse("/v1/b.com", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": {"code": 404, "message": "domain not found"}}`,
	})
	mock.SetProfileResponse("c.com", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"response": {"registrant": "C Corp"}}`,
	})

	c := newIntegrationClient(t, mock, redisClient)

	items, err := batch.DomainProfiles(context.Background(), c,
		[]string{"a.com", "b.com", "c.com"}, 3)
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if items[0].Status != batch.StatusSuccess || items[0].ID != "a.com" {
		t.Errorf("items[0] = %+v, want a.com success", items[0])
	}
	if items[1].Status != batch.StatusFailed {
		t.Errorf("items[1].Status = %s, want failed", items[1].Status)
	}
	if items[1].Err == nil || items[1].Err.Kind != client.KindInvalidRequest {
		t.Errorf("items[1].Err = %v, want invalid_request", items[1].Err)
	}
	if items[2].Status != batch.StatusSuccess || items[2].ID != "c.com" {
		t.Errorf("items[2] = %+v, want c.com success", items[2])
	}

	// Successful lookups are now cached: re-running the batch adds no API
	// traffic for a.com and c.com.
	before := mock.GetRequestCount()
	items2, err := batch.DomainProfiles(context.Background(), c,
		[]string{"a.com", "c.com"}, 2)
	if err != nil {
		t.Fatalf("Second batch failed: %v", err)
	}
	for _, item := range items2 {
		if item.Status != batch.StatusSuccess {
			t.Errorf("cached item %s status = %s, want success", item.ID, item.Status)
		}
	}
	if mock.GetRequestCount() != before {
		t.Errorf("API requests grew from %d to %d, cached batch should add none",
			before, mock.GetRequestCount())
	}
}
