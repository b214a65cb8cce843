package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/oneapi-client/pkg/api"
)

// ErrIncompletePage is returned when a page comes back empty before the
// declared total has been reached. Continuing would request the same offset forever.
var ErrIncompletePage = errors.New("empty page before total reached")

// Config holds collector configuration.
type Config struct {
	// PageSize is the limit sent with every page request.
	PageSize int
}

// DefaultConfig returns the page size the public API serves by default.
func DefaultConfig() Config {
	return Config{PageSize: api.DefaultLimit}
}

// PageFunc fetches the page starting at offset.
type PageFunc[T any] func(ctx context.Context, offset, limit int) (*api.Page[T], error)

// MergeFunc folds one page into the caller's working set.
type MergeFunc[T any] func(ctx context.Context, page *api.Page[T]) error

// Result summarises a completed run.
type Result struct {
	Pages   int
	Records int
	Total   int
}

// Collector walks paginated listings.
type Collector struct {
	config Config
	logger zerolog.Logger
}

// NewCollector creates a collector. A non-positive page size falls back to the default.
func NewCollector(config Config, logger zerolog.Logger) *Collector {
	if config.PageSize <= 0 {
		config.PageSize = api.DefaultLimit
	}
	return &Collector{
		config: config,
		logger: logger,
	}
}

// PageSize returns the configured page size.
func (c *Collector) PageSize() int {
	return c.config.PageSize
}

// CollectAll fetches pages at increasing offsets and merges each one until the
// number of records received reaches the total reported by the latest page.
// With N records and page size P it issues ceil(N/P) requests (one when N is zero).
func CollectAll[T any](ctx context.Context, c *Collector, fetch PageFunc[T], merge MergeFunc[T]) (Result, error) {
	start := time.Now()
	var result Result

	for {
		page, err := fetch(ctx, result.Records, c.config.PageSize)
		if err != nil {
			return result, fmt.Errorf("fetch page at offset %d: %w", result.Records, err)
		}
		result.Pages++

		if err := merge(ctx, page); err != nil {
			return result, fmt.Errorf("merge page at offset %d: %w", result.Records, err)
		}

		result.Records += len(page.Docs)
		result.Total = page.Total

		c.logger.Debug().
			Int("page", result.Pages).
			Int("received", len(page.Docs)).
			Int("records", result.Records).
			Int("total", result.Total).
			Msg("Page merged")

		if result.Records >= result.Total {
			break
		}
		if len(page.Docs) == 0 {
			return result, fmt.Errorf("%w: %d of %d records after %d pages", ErrIncompletePage, result.Records, result.Total, result.Pages)
		}
	}

	c.logger.Debug().
		Int("pages", result.Pages).
		Int("records", result.Records).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return result, nil
}
