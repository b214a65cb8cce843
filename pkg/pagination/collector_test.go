package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/oneapi-client/pkg/api"
)

// listing serves a fixed slice of ids in pages and records the offsets it was asked for.
type listing struct {
	ids     []string
	offsets []int
	failAt  int
	err     error
}

func newListing(n int) *listing {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return &listing{ids: ids, failAt: -1}
}

func (l *listing) fetch(ctx context.Context, offset, limit int) (*api.Page[string], error) {
	l.offsets = append(l.offsets, offset)
	if l.failAt >= 0 && len(l.offsets)-1 == l.failAt {
		return nil, l.err
	}
	end := min(offset+limit, len(l.ids))
	start := min(offset, end)
	return &api.Page[string]{
		Docs:   append([]string(nil), l.ids[start:end]...),
		Total:  len(l.ids),
		Limit:  limit,
		Offset: offset,
	}, nil
}

func TestCollectAll_PageCounts(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		pageSize      int
		expectedPages int
		expectedOffs  []int
	}{
		{"empty listing", 0, 10, 1, []int{0}},
		{"single partial page", 7, 10, 1, []int{0}},
		{"exact single page", 10, 10, 1, []int{0}},
		{"total 15 page 10", 15, 10, 2, []int{0, 10}},
		{"exact multiple", 30, 10, 3, []int{0, 10, 20}},
		{"page size one", 3, 1, 3, []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing(tt.total)
			c := NewCollector(Config{PageSize: tt.pageSize}, zerolog.Nop())

			seen := make(map[string]int)
			result, err := CollectAll(context.Background(), c, l.fetch, func(ctx context.Context, page *api.Page[string]) error {
				for _, id := range page.Docs {
					seen[id]++
				}
				return nil
			})
			if err != nil {
				t.Fatalf("CollectAll() error = %v", err)
			}

			if result.Pages != tt.expectedPages || len(l.offsets) != tt.expectedPages {
				t.Errorf("pages = %d (fetches %d), want %d", result.Pages, len(l.offsets), tt.expectedPages)
			}
			if fmt.Sprint(l.offsets) != fmt.Sprint(tt.expectedOffs) {
				t.Errorf("offsets = %v, want %v", l.offsets, tt.expectedOffs)
			}
			if len(seen) != tt.total || result.Records != tt.total {
				t.Errorf("merged %d distinct records (result %d), want %d", len(seen), result.Records, tt.total)
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("record %s merged %d times", id, n)
				}
			}
		})
	}
}

func TestCollectAll_FetchErrorAborts(t *testing.T) {
	l := newListing(25)
	l.failAt = 1
	l.err = &api.APIError{StatusCode: 401, Class: api.ErrorClassUnauthorized, Err: api.ErrUnauthorized}
	c := NewCollector(Config{PageSize: 10}, zerolog.Nop())

	merged := 0
	result, err := CollectAll(context.Background(), c, l.fetch, func(ctx context.Context, page *api.Page[string]) error {
		merged += len(page.Docs)
		return nil
	})

	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if len(l.offsets) != 2 {
		t.Errorf("fetches = %d, want 2 (no retry, no further pages)", len(l.offsets))
	}
	if merged != 10 || result.Records != 10 {
		t.Errorf("merged %d records (result %d), want 10", merged, result.Records)
	}
}

func TestCollectAll_MergeErrorAborts(t *testing.T) {
	l := newListing(25)
	c := NewCollector(Config{PageSize: 10}, zerolog.Nop())
	mergeErr := fmt.Errorf("resolve character: %w", api.ErrDataInconsistency)

	_, err := CollectAll(context.Background(), c, l.fetch, func(ctx context.Context, page *api.Page[string]) error {
		if page.Offset == 10 {
			return mergeErr
		}
		return nil
	})

	if !errors.Is(err, api.ErrDataInconsistency) {
		t.Fatalf("error = %v, want ErrDataInconsistency", err)
	}
	if len(l.offsets) != 2 {
		t.Errorf("fetches = %d, want 2", len(l.offsets))
	}
}

func TestCollectAll_EmptyPageBeforeTotal(t *testing.T) {
	c := NewCollector(Config{PageSize: 10}, zerolog.Nop())
	calls := 0
	fetch := func(ctx context.Context, offset, limit int) (*api.Page[string], error) {
		calls++
		if offset == 0 {
			return &api.Page[string]{Docs: []string{"a", "b"}, Total: 5}, nil
		}
		return &api.Page[string]{Docs: nil, Total: 5}, nil
	}

	_, err := CollectAll(context.Background(), c, fetch, func(ctx context.Context, page *api.Page[string]) error { return nil })
	if !errors.Is(err, ErrIncompletePage) {
		t.Fatalf("error = %v, want ErrIncompletePage", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestCollectAll_TotalFromLatestPage(t *testing.T) {
	c := NewCollector(Config{PageSize: 2}, zerolog.Nop())
	fetch := func(ctx context.Context, offset, limit int) (*api.Page[string], error) {
		if offset == 0 {
			return &api.Page[string]{Docs: []string{"a", "b"}, Total: 6}, nil
		}
		// The listing shrank between requests.
		return &api.Page[string]{Docs: []string{"c"}, Total: 3}, nil
	}

	result, err := CollectAll(context.Background(), c, fetch, func(ctx context.Context, page *api.Page[string]) error { return nil })
	if err != nil {
		t.Fatalf("CollectAll() error = %v", err)
	}
	if result.Pages != 2 || result.Records != 3 || result.Total != 3 {
		t.Errorf("result = %+v, want 2 pages, 3 records, total 3", result)
	}
}

func TestNewCollector_DefaultPageSize(t *testing.T) {
	c := NewCollector(Config{}, zerolog.Nop())
	if c.PageSize() != api.DefaultLimit {
		t.Errorf("PageSize() = %d, want %d", c.PageSize(), api.DefaultLimit)
	}
	if DefaultConfig().PageSize != api.DefaultLimit {
		t.Errorf("DefaultConfig().PageSize = %d, want %d", DefaultConfig().PageSize, api.DefaultLimit)
	}
}
