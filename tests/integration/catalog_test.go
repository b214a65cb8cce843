//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/oneapi-client/internal/testutil"
	"github.com/Sternrassler/oneapi-client/pkg/api"
	"github.com/Sternrassler/oneapi-client/pkg/catalog"
	"github.com/Sternrassler/oneapi-client/pkg/ratelimit"
)

const testToken = "integration-token"

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

// fakeClock is shared by several catalogs so they agree on time.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func newCatalog(t *testing.T, mock *testutil.MockAPI, requestLog ratelimit.RequestLog, clock ratelimit.Clock, rpm int) *catalog.Catalog {
	t.Helper()

	logger := zerolog.Nop()
	client, err := api.New(api.Config{BaseURL: mock.URL(), Token: testToken, Timeout: 10 * time.Second, Logger: &logger})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}

	cfg := catalog.DefaultConfig()
	cfg.RequestsPerMinute = rpm
	cfg.RequestLog = requestLog
	cfg.Clock = clock
	cfg.Logger = &logger

	c, err := catalog.New(client, cfg)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return c
}

// TestFullCatalogFlow exercises Scheduler → Redis window → API → Cache.
func TestFullCatalogFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI(testToken)
	defer mock.Close()
	mock.AddMovies(testutil.NewMovies(25)...)
	mock.AddCharacter("c1", "Gandalf")
	mock.AddCharacter("c2", "Samwise Gamgee")
	mock.AddQuotes("movie-000", testutil.NewQuotes("movie-000", 15, "c1", "c2")...)

	ctx := context.Background()
	requestLog := ratelimit.NewRedisLog(redisClient, "")
	clock := &fakeClock{now: time.Now().Truncate(time.Millisecond)}
	c := newCatalog(t, mock, requestLog, clock, 100)

	movies, err := c.AllMovies(ctx)
	if err != nil {
		t.Fatalf("AllMovies() error = %v", err)
	}
	if len(movies) != 25 {
		t.Errorf("len(movies) = %d, want 25", len(movies))
	}
	if n := mock.GetRequestCount(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}

	quotes, err := c.MovieQuotes(ctx, "movie-000")
	if err != nil {
		t.Fatalf("MovieQuotes() error = %v", err)
	}
	if len(quotes) != 15 {
		t.Errorf("len(quotes) = %d, want 15", len(quotes))
	}
	if quotes["movie-000-quote-001"].Character != "Samwise Gamgee" {
		t.Errorf("quote 1 character = %q, want Samwise Gamgee", quotes["movie-000-quote-001"].Character)
	}

	// 3 movie pages + 2 quote pages + 2 characters
	if n := mock.GetRequestCount(); n != 7 {
		t.Errorf("requests = %d, want 7", n)
	}
	count, err := requestLog.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 7 {
		t.Errorf("shared window = %d, want 7", count)
	}

	// Everything is cached now.
	if _, err := c.AllMovies(ctx); err != nil {
		t.Fatalf("AllMovies() error = %v", err)
	}
	if _, err := c.MovieQuotes(ctx, "movie-000"); err != nil {
		t.Fatalf("MovieQuotes() error = %v", err)
	}
	if _, err := c.Movie(ctx, "movie-024"); err != nil {
		t.Fatalf("Movie() error = %v", err)
	}
	if n := mock.GetRequestCount(); n != 7 {
		t.Errorf("requests after cached calls = %d, want 7", n)
	}
}

// TestSharedWindowAcrossCatalogs verifies two catalogs with separate caches
// draw on one request budget.
func TestSharedWindowAcrossCatalogs(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI(testToken)
	defer mock.Close()
	mock.AddMovies(testutil.NewMovies(30)...)

	ctx := context.Background()
	clock := &fakeClock{now: time.Now().Truncate(time.Millisecond)}
	first := newCatalog(t, mock, ratelimit.NewRedisLog(redisClient, "test:shared"), clock, 3)
	second := newCatalog(t, mock, ratelimit.NewRedisLog(redisClient, "test:shared"), clock, 3)

	if _, err := first.AllMovies(ctx); err != nil {
		t.Fatalf("first.AllMovies() error = %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("first catalog waited %v, want no wait", clock.sleeps)
	}

	if _, err := second.Movie(ctx, "movie-007"); err != nil {
		t.Fatalf("second.Movie() error = %v", err)
	}
	want := ratelimit.Window + ratelimit.SafetyMargin
	if len(clock.sleeps) != 1 || clock.sleeps[0] != want {
		t.Errorf("second catalog sleeps = %v, want [%v]", clock.sleeps, want)
	}
}

// TestTooManyRequestsLeavesOneEntry verifies a retried request occupies one slot.
func TestTooManyRequestsLeavesOneEntry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI(testToken)
	defer mock.Close()
	mock.AddMovies(testutil.NewMovies(5)...)
	mock.QueueStatus(http.StatusTooManyRequests, http.StatusTooManyRequests)

	ctx := context.Background()
	requestLog := ratelimit.NewRedisLog(redisClient, "test:retry")
	clock := &fakeClock{now: time.Now().Truncate(time.Millisecond)}
	c := newCatalog(t, mock, requestLog, clock, 10)

	if _, err := c.AllMovies(ctx); err != nil {
		t.Fatalf("AllMovies() error = %v", err)
	}
	if n := mock.GetRequestCount(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}

	count, err := requestLog.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("window entries = %d, want 1", count)
	}
}
