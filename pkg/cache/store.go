package cache

import (
	"maps"

	"github.com/Sternrassler/oneapi-client/pkg/model"
)

// Store is the catalog state of one SDK instance.
type Store struct {
	movies          map[model.MovieID]model.Movie
	quotes          map[model.MovieID]map[model.QuoteID]model.Quote
	characters      map[model.CharacterID]string
	allMoviesLoaded bool
}

// Stats is a snapshot of the store size.
type Stats struct {
	Movies          int  `json:"movies"`
	QuoteSets       int  `json:"quoteSets"`
	Quotes          int  `json:"quotes"`
	Characters      int  `json:"characters"`
	AllMoviesLoaded bool `json:"allMoviesLoaded"`
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	s.Clear()
	return s
}

// Movie returns a cached movie.
func (s *Store) Movie(id model.MovieID) (model.Movie, bool) {
	m, ok := s.movies[id]
	observe(KindMovie, ok)
	return m, ok
}

// Movies returns a copy of every cached movie.
func (s *Store) Movies() map[model.MovieID]model.Movie {
	return maps.Clone(s.movies)
}

// AllMoviesLoaded reports whether the full listing is cached.
func (s *Store) AllMoviesLoaded() bool {
	observe(KindMovies, s.allMoviesLoaded)
	return s.allMoviesLoaded
}

// MarkAllMoviesLoaded records that the cached movies are the complete listing.
func (s *Store) MarkAllMoviesLoaded() {
	s.allMoviesLoaded = true
}

// PutMovies upserts movies by id.
func (s *Store) PutMovies(movies ...model.Movie) {
	for _, m := range movies {
		s.movies[m.ID] = m
	}
	CacheEntries.WithLabelValues(KindMovie).Set(float64(len(s.movies)))
}

// Quotes returns a copy of a movie's quote set. A fetched movie without quotes
// returns an empty, non-nil map and true.
func (s *Store) Quotes(movieID model.MovieID) (map[model.QuoteID]model.Quote, bool) {
	q, ok := s.quotes[movieID]
	observe(KindQuotes, ok)
	if !ok {
		return nil, false
	}
	return maps.Clone(q), true
}

// PutQuotes replaces the entire quote set of a movie.
func (s *Store) PutQuotes(movieID model.MovieID, quotes map[model.QuoteID]model.Quote) {
	set := maps.Clone(quotes)
	if set == nil {
		set = make(map[model.QuoteID]model.Quote)
	}
	s.quotes[movieID] = set
	CacheEntries.WithLabelValues(KindQuotes).Set(float64(len(s.quotes)))
}

// CharacterName returns a resolved character name.
func (s *Store) CharacterName(id model.CharacterID) (string, bool) {
	name, ok := s.characters[id]
	observe(KindCharacter, ok)
	return name, ok
}

// PutCharacterName stores a name unless the id already has one.
// It reports whether the name was stored.
func (s *Store) PutCharacterName(id model.CharacterID, name string) bool {
	if _, exists := s.characters[id]; exists {
		return false
	}
	s.characters[id] = name
	CacheEntries.WithLabelValues(KindCharacter).Set(float64(len(s.characters)))
	return true
}

// Stats returns the current store size.
func (s *Store) Stats() Stats {
	st := Stats{
		Movies:          len(s.movies),
		QuoteSets:       len(s.quotes),
		Characters:      len(s.characters),
		AllMoviesLoaded: s.allMoviesLoaded,
	}
	for _, set := range s.quotes {
		st.Quotes += len(set)
	}
	return st
}

// Clear resets the store to its initial empty state.
func (s *Store) Clear() {
	s.movies = make(map[model.MovieID]model.Movie)
	s.quotes = make(map[model.MovieID]map[model.QuoteID]model.Quote)
	s.characters = make(map[model.CharacterID]string)
	s.allMoviesLoaded = false
	for _, kind := range []string{KindMovie, KindQuotes, KindCharacter} {
		CacheEntries.WithLabelValues(kind).Set(0)
	}
}
