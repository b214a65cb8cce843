// Package catalog is the SDK surface: a cached, rate-limited view of the
// movie catalog that hides pagination.
//
// Every operation consults the in-memory store first and only falls back to
// the API on a miss. Remote calls go through one Scheduler, so the configured
// requests-per-minute budget holds across operations, and listings are
// aggregated page by page before anything is committed to the store.
//
// A Catalog is meant for one caller at a time. Callers that need concurrency
// must serialise access or use separate instances.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/oneapi-client/pkg/api"
	"github.com/Sternrassler/oneapi-client/pkg/cache"
	"github.com/Sternrassler/oneapi-client/pkg/model"
	"github.com/Sternrassler/oneapi-client/pkg/pagination"
	"github.com/Sternrassler/oneapi-client/pkg/ratelimit"
)

var operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "oneapi_catalog_operation_duration_seconds",
	Help:    "Catalog operation duration in seconds, including cache hits and rate-limit waits",
	Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60, 300},
}, []string{"operation"})

type (
	// Movie is a cached catalog entry.
	Movie = model.Movie
	// Quote is a quote with its character name resolved.
	Quote = model.Quote
)

// Fetcher is the single-request API surface the catalog builds on.
// *api.Client implements it.
type Fetcher interface {
	ListMovies(ctx context.Context, opts api.ListOptions) (*api.Page[api.Movie], error)
	GetMovie(ctx context.Context, id string) (*api.Page[api.Movie], error)
	GetMovieQuotes(ctx context.Context, movieID string, opts api.ListOptions) (*api.Page[api.Quote], error)
	GetCharacterName(ctx context.Context, id string) (string, error)
}

// Catalog is the cached SDK facade.
type Catalog struct {
	fetcher   Fetcher
	scheduler *ratelimit.Scheduler
	collector *pagination.Collector
	store     *cache.Store
	logger    zerolog.Logger
}

// New creates a catalog with an empty cache.
func New(fetcher Fetcher, cfg Config) (*Catalog, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("page_size must be >= 1 (got %d)", cfg.PageSize)
	}

	logger := log.With().Str("component", "catalog").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	opts := []ratelimit.Option{ratelimit.WithLogger(logger.With().Str("layer", "scheduler").Logger())}
	if cfg.RequestLog != nil {
		opts = append(opts, ratelimit.WithLog(cfg.RequestLog))
	}
	if cfg.Clock != nil {
		opts = append(opts, ratelimit.WithClock(cfg.Clock))
	}

	scheduler, err := ratelimit.NewScheduler(ratelimit.Config{
		RequestsPerMinute:      cfg.RequestsPerMinute,
		RetryOnTooManyRequests: cfg.RetryOnRateLimit,
		RetryBackoff:           cfg.RetryBackoff,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Catalog{
		fetcher:   fetcher,
		scheduler: scheduler,
		collector: pagination.NewCollector(pagination.Config{PageSize: cfg.PageSize}, logger.With().Str("layer", "pagination").Logger()),
		store:     cache.NewStore(),
		logger:    logger,
	}, nil
}

// AllMovies returns every movie in the catalog.
// The first successful call walks the whole listing; later calls are served
// from the cache without any request. A failed run caches nothing.
func (c *Catalog) AllMovies(ctx context.Context) (map[model.MovieID]Movie, error) {
	defer observe("all_movies", time.Now())

	if c.store.AllMoviesLoaded() {
		return c.store.Movies(), nil
	}

	var staged []Movie
	result, err := pagination.CollectAll(ctx, c.collector,
		func(ctx context.Context, offset, limit int) (*api.Page[api.Movie], error) {
			return ratelimit.Do(ctx, c.scheduler, func(ctx context.Context) (*api.Page[api.Movie], error) {
				return c.fetcher.ListMovies(ctx, api.ListOptions{Offset: offset, Limit: limit})
			})
		},
		func(ctx context.Context, page *api.Page[api.Movie]) error {
			for _, m := range page.Docs {
				staged = append(staged, m.Model())
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	c.store.PutMovies(staged...)
	c.store.MarkAllMoviesLoaded()

	c.logger.Info().
		Int("movies", result.Records).
		Int("pages", result.Pages).
		Msg("Movie catalog loaded")

	return c.store.Movies(), nil
}

// Movie returns one movie, fetching it by id on a cache miss.
// An id the API does not know yields an error wrapping api.ErrNotFound.
func (c *Catalog) Movie(ctx context.Context, id model.MovieID) (Movie, error) {
	defer observe("movie", time.Now())

	if m, ok := c.store.Movie(id); ok {
		return m, nil
	}

	page, err := ratelimit.Do(ctx, c.scheduler, func(ctx context.Context) (*api.Page[api.Movie], error) {
		return c.fetcher.GetMovie(ctx, id)
	})
	if err != nil {
		return Movie{}, fmt.Errorf("get movie %s: %w", id, err)
	}

	var found *Movie
	for _, doc := range page.Docs {
		m := doc.Model()
		c.store.PutMovies(m)
		if m.ID == id {
			found = &m
		}
	}

	if found == nil {
		return Movie{}, fmt.Errorf("get movie %s: %w", id, api.ErrNotFound)
	}
	return *found, nil
}

// MovieQuotes returns the complete quote set of a movie keyed by quote id,
// with every character id resolved to a name.
// The set is cached only once every page and every name has been resolved.
func (c *Catalog) MovieQuotes(ctx context.Context, movieID model.MovieID) (map[model.QuoteID]Quote, error) {
	defer observe("movie_quotes", time.Now())

	if quotes, ok := c.store.Quotes(movieID); ok {
		return quotes, nil
	}

	quotes := make(map[model.QuoteID]Quote)
	result, err := pagination.CollectAll(ctx, c.collector,
		func(ctx context.Context, offset, limit int) (*api.Page[api.Quote], error) {
			return ratelimit.Do(ctx, c.scheduler, func(ctx context.Context) (*api.Page[api.Quote], error) {
				return c.fetcher.GetMovieQuotes(ctx, movieID, api.ListOptions{Offset: offset, Limit: limit})
			})
		},
		func(ctx context.Context, page *api.Page[api.Quote]) error {
			for _, q := range page.Docs {
				name, err := c.CharacterName(ctx, q.Character)
				if err != nil {
					return fmt.Errorf("quote %s: %w", q.ID, err)
				}
				owner := q.Movie
				if owner == "" {
					owner = movieID
				}
				quotes[q.ID] = Quote{
					ID:          q.ID,
					MovieID:     owner,
					Dialog:      q.Dialog,
					CharacterID: q.Character,
					Character:   name,
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get quotes of movie %s: %w", movieID, err)
	}

	c.store.PutQuotes(movieID, quotes)

	c.logger.Debug().
		Str("movie_id", movieID).
		Int("quotes", len(quotes)).
		Int("pages", result.Pages).
		Msg("Movie quotes loaded")

	return quotes, nil
}

// CharacterName resolves a character id to its name, caching the result for
// the lifetime of the cache. A cached id costs no request.
func (c *Catalog) CharacterName(ctx context.Context, id model.CharacterID) (string, error) {
	if name, ok := c.store.CharacterName(id); ok {
		return name, nil
	}

	name, err := ratelimit.Do(ctx, c.scheduler, func(ctx context.Context) (string, error) {
		return c.fetcher.GetCharacterName(ctx, id)
	})
	if err != nil {
		return "", fmt.Errorf("resolve character %s: %w", id, err)
	}

	c.store.PutCharacterName(id, name)
	return name, nil
}

// ClearCache drops every cached movie, quote set and character name.
func (c *Catalog) ClearCache() {
	c.store.Clear()
	c.logger.Debug().Msg("Cache cleared")
}

// Stats returns the size of the cache.
func (c *Catalog) Stats() cache.Stats {
	return c.store.Stats()
}

func observe(operation string, start time.Time) {
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
