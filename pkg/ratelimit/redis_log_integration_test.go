//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisLog_Integration_Operations(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	l := NewRedisLog(redisClient, "")
	base := time.Now().Truncate(time.Millisecond)

	if _, ok, err := l.Oldest(ctx); err != nil || ok {
		t.Fatalf("Oldest() on empty log = ok %v, err %v; want false, nil", ok, err)
	}

	for i, id := range []string{"a", "b", "c"} {
		if err := l.Append(ctx, Entry{ID: id, At: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	count, err := l.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count() = %d, %v; want 3", count, err)
	}

	oldest, ok, err := l.Oldest(ctx)
	if err != nil || !ok || oldest.ID != "a" || !oldest.At.Equal(base) {
		t.Fatalf("Oldest() = %+v, %v, %v; want a at %v", oldest, ok, err, base)
	}

	// Entry b sits exactly on the cutoff and must survive.
	if err := l.Prune(ctx, base.Add(time.Second)); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if count, _ := l.Count(ctx); count != 2 {
		t.Errorf("Count() after prune = %d, want 2", count)
	}

	if err := l.Remove(ctx, "c"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	oldest, _, _ = l.Oldest(ctx)
	if count, _ := l.Count(ctx); count != 1 || oldest.ID != "b" {
		t.Errorf("after Remove: count %d oldest %q, want 1 and b", count, oldest.ID)
	}

	ttl, err := redisClient.TTL(ctx, RedisKeyRequestLog).Result()
	if err != nil || ttl <= 0 || ttl > 2*Window {
		t.Errorf("TTL = %v, %v; want within (0, %v]", ttl, err, 2*Window)
	}
}

func TestRedisLog_Integration_SharedWindow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	clock := newFakeClock()
	clock.now = time.Now().Truncate(time.Millisecond)

	newScheduler := func() *Scheduler {
		s, err := NewScheduler(Config{RequestsPerMinute: 2},
			WithLog(NewRedisLog(redisClient, "test:shared")),
			WithClock(clock),
			WithLogger(zerolog.Nop()))
		if err != nil {
			t.Fatalf("NewScheduler() error = %v", err)
		}
		return s
	}
	first, second := newScheduler(), newScheduler()
	noop := func(ctx context.Context) error { return nil }

	if err := first.Schedule(ctx, noop); err != nil {
		t.Fatalf("first.Schedule() error = %v", err)
	}
	if err := second.Schedule(ctx, noop); err != nil {
		t.Fatalf("second.Schedule() error = %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("sleeps = %v, want none while the shared window has room", clock.sleeps)
	}

	// Both schedulers filled the shared window, so a third request waits.
	if err := first.Schedule(ctx, noop); err != nil {
		t.Fatalf("first.Schedule() error = %v", err)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != Window+SafetyMargin {
		t.Errorf("sleeps = %v, want [%v]", clock.sleeps, Window+SafetyMargin)
	}
}
