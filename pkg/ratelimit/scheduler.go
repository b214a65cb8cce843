package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/oneapi-client/pkg/api"
)

// Prometheus metrics for request scheduling.
var (
	schedulerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oneapi_scheduler_waits_total",
		Help: "Total number of times a request waited for the rate-limit window",
	})

	schedulerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oneapi_scheduler_wait_seconds",
		Help:    "Time spent waiting for the rate-limit window",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60},
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oneapi_retries_total",
		Help: "Total number of retried requests by error class",
	}, []string{"error_class"})

	requestsInWindow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oneapi_requests_in_window",
		Help: "Requests logged in the current sliding window",
	})
)

// Config holds the scheduler limits.
type Config struct {
	// RequestsPerMinute caps the requests issued within any trailing Window.
	RequestsPerMinute int

	// RetryOnTooManyRequests retries 429 responses indefinitely.
	RetryOnTooManyRequests bool

	// RetryBackoff is the pause before retrying a 429.
	RetryBackoff time.Duration
}

// DefaultConfig matches the public API's documented limits.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute:      10,
		RetryOnTooManyRequests: true,
		RetryBackoff:           30 * time.Second,
	}
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithLog replaces the default in-memory request log.
func WithLog(l RequestLog) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// Scheduler gates every remote call through the sliding window.
// It is not safe for concurrent use: requests are issued one at a time.
type Scheduler struct {
	cfg    Config
	log    RequestLog
	clock  Clock
	logger zerolog.Logger
}

// NewScheduler creates a scheduler with an empty in-memory request log.
func NewScheduler(cfg Config, opts ...Option) (*Scheduler, error) {
	if cfg.RequestsPerMinute < 1 {
		return nil, fmt.Errorf("requests_per_minute must be >= 1 (got %d)", cfg.RequestsPerMinute)
	}
	if cfg.RetryBackoff < 0 {
		return nil, fmt.Errorf("retry_backoff must not be negative (got %s)", cfg.RetryBackoff)
	}

	s := &Scheduler{
		cfg:    cfg,
		log:    NewMemoryLog(),
		clock:  SystemClock{},
		logger: log.With().Str("component", "scheduler").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the scheduler limits.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Schedule issues op once there is capacity in the window.
// A 429 from op is retried after RetryBackoff when enabled, until op succeeds or
// fails otherwise; the rejected attempt is removed from the log since the server
// did not count it. Any other error is returned unmodified.
func (s *Scheduler) Schedule(ctx context.Context, op func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		entry, err := s.acquire(ctx)
		if err != nil {
			return err
		}

		err = op(ctx)
		if err == nil {
			if attempt > 1 {
				s.logger.Info().Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			return nil
		}

		if !s.cfg.RetryOnTooManyRequests || !api.IsTooManyRequests(err) {
			return err
		}

		if rmErr := s.log.Remove(ctx, entry.ID); rmErr != nil {
			return fmt.Errorf("remove rejected request from log: %w", rmErr)
		}

		class := api.ClassOf(err)
		retriesTotal.WithLabelValues(string(class)).Inc()
		s.logger.Warn().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", s.cfg.RetryBackoff).
			Msg("Too many requests, retrying after backoff")

		if err := s.clock.Sleep(ctx, s.cfg.RetryBackoff); err != nil {
			return fmt.Errorf("retry backoff: %w", err)
		}
	}
}

// acquire blocks until the window has room, then logs and returns a new entry.
func (s *Scheduler) acquire(ctx context.Context) (Entry, error) {
	for {
		now := s.clock.Now()
		if err := s.log.Prune(ctx, now.Add(-Window)); err != nil {
			return Entry{}, fmt.Errorf("prune request log: %w", err)
		}

		count, err := s.log.Count(ctx)
		if err != nil {
			return Entry{}, fmt.Errorf("count request log: %w", err)
		}

		if count < s.cfg.RequestsPerMinute {
			entry := Entry{ID: uuid.NewString(), At: now}
			if err := s.log.Append(ctx, entry); err != nil {
				return Entry{}, fmt.Errorf("append request log: %w", err)
			}
			requestsInWindow.Set(float64(count + 1))
			return entry, nil
		}

		wait := SafetyMargin
		oldest, ok, err := s.log.Oldest(ctx)
		if err != nil {
			return Entry{}, fmt.Errorf("read request log: %w", err)
		}
		if ok {
			wait += oldest.At.Add(Window).Sub(now)
		}

		schedulerWaitsTotal.Inc()
		schedulerWaitSeconds.Observe(wait.Seconds())
		s.logger.Debug().
			Int("in_window", count).
			Int("limit", s.cfg.RequestsPerMinute).
			Dur("wait", wait).
			Msg("Rate limit window full, waiting")

		if err := s.clock.Sleep(ctx, wait); err != nil {
			return Entry{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
}

// Do runs op through the scheduler and returns its result.
func Do[T any](ctx context.Context, s *Scheduler, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := s.Schedule(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
