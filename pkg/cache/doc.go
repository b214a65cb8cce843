// Package cache holds the SDK's in-memory catalog state.
//
// A Store keeps four things for the lifetime of an SDK instance:
//
//   - movies by id
//   - the complete quote set of each movie whose quotes were fetched
//   - character names by character id
//   - whether the full movie listing has been loaded
//
// # Invariants
//
//   - A movie's quote set is either absent or complete. PutQuotes replaces the
//     whole set; there is no partial merge.
//   - Character names are written once. A later write for the same id is ignored.
//   - The all-movies flag is only set by the caller after a complete listing run.
//
// Read accessors return copies, so callers cannot change cached state.
//
// # Metrics
//
//   - oneapi_cache_hits_total{kind} - lookups answered from the store
//   - oneapi_cache_misses_total{kind} - lookups that require a fetch
//   - oneapi_cache_entries{kind} - cached entries by kind
//
// kind is one of "movie", "movies", "quotes", "character".
//
// The store does no I/O and is not safe for concurrent use.
package cache
