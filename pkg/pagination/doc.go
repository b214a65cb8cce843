// Package pagination aggregates offset-paginated API listings into one collection.
//
// The API returns a bounded page per request together with the total size of
// the result set. CollectAll walks the listing sequentially, starting at offset
// zero and advancing by the number of records received, until the running count
// reaches the reported total:
//
//	collector := pagination.NewCollector(pagination.Config{PageSize: 10}, logger)
//	result, err := pagination.CollectAll(ctx, collector,
//		func(ctx context.Context, offset, limit int) (*api.Page[api.Movie], error) {
//			return client.ListMovies(ctx, api.ListOptions{Offset: offset, Limit: limit})
//		},
//		func(ctx context.Context, page *api.Page[api.Movie]) error {
//			staged = append(staged, page.Docs...)
//			return nil
//		})
//
// Pages are fetched one at a time; the fetch function is expected to go through
// the rate-limit scheduler. A failed fetch or merge aborts the whole run and the
// collector keeps no state of its own, so callers commit results only on success.
package pagination
