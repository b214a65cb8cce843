package cache

import (
	"testing"

	"github.com/Sternrassler/oneapi-client/pkg/model"
)

func TestNewStore_Empty(t *testing.T) {
	s := NewStore()

	if _, ok := s.Movie("m1"); ok {
		t.Error("Movie() should miss on an empty store")
	}
	if _, ok := s.Quotes("m1"); ok {
		t.Error("Quotes() should miss on an empty store")
	}
	if _, ok := s.CharacterName("c1"); ok {
		t.Error("CharacterName() should miss on an empty store")
	}
	if s.AllMoviesLoaded() {
		t.Error("AllMoviesLoaded() should be false on an empty store")
	}
	if got := s.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero", got)
	}
}

func TestStore_PutMoviesUpserts(t *testing.T) {
	s := NewStore()

	s.PutMovies(model.Movie{ID: "m1", Name: "First"}, model.Movie{ID: "m2", Name: "Second"})
	s.PutMovies(model.Movie{ID: "m1", Name: "First (updated)"})

	m, ok := s.Movie("m1")
	if !ok || m.Name != "First (updated)" {
		t.Errorf("Movie(m1) = %+v, %v; want the later write", m, ok)
	}
	if n := len(s.Movies()); n != 2 {
		t.Errorf("len(Movies()) = %d, want 2", n)
	}
}

func TestStore_MoviesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.PutMovies(model.Movie{ID: "m1", Name: "First"})

	movies := s.Movies()
	delete(movies, "m1")
	movies["m2"] = model.Movie{ID: "m2"}

	if _, ok := s.Movie("m1"); !ok {
		t.Error("deleting from the returned map must not affect the store")
	}
	if _, ok := s.Movie("m2"); ok {
		t.Error("adding to the returned map must not affect the store")
	}
}

func TestStore_PutQuotesReplacesWholeSet(t *testing.T) {
	s := NewStore()

	s.PutQuotes("m1", map[model.QuoteID]model.Quote{
		"q1": {ID: "q1", MovieID: "m1"},
		"q2": {ID: "q2", MovieID: "m1"},
	})
	s.PutQuotes("m1", map[model.QuoteID]model.Quote{
		"q3": {ID: "q3", MovieID: "m1"},
	})

	quotes, ok := s.Quotes("m1")
	if !ok {
		t.Fatal("Quotes(m1) should hit")
	}
	if len(quotes) != 1 {
		t.Fatalf("len(Quotes(m1)) = %d, want 1 (replace, not merge)", len(quotes))
	}
	if _, ok := quotes["q3"]; !ok {
		t.Error("Quotes(m1) should contain q3")
	}
}

func TestStore_EmptyQuoteSetIsAHit(t *testing.T) {
	s := NewStore()
	s.PutQuotes("m1", nil)

	quotes, ok := s.Quotes("m1")
	if !ok {
		t.Fatal("an empty quote set must be cached as present")
	}
	if quotes == nil || len(quotes) != 0 {
		t.Errorf("Quotes(m1) = %v, want empty non-nil map", quotes)
	}
}

func TestStore_QuotesCopiedOnWriteAndRead(t *testing.T) {
	s := NewStore()
	input := map[model.QuoteID]model.Quote{"q1": {ID: "q1"}}
	s.PutQuotes("m1", input)

	input["q2"] = model.Quote{ID: "q2"}
	got, _ := s.Quotes("m1")
	got["q3"] = model.Quote{ID: "q3"}

	again, _ := s.Quotes("m1")
	if len(again) != 1 {
		t.Errorf("len(Quotes(m1)) = %d, want 1; caller maps must not alias the store", len(again))
	}
}

func TestStore_CharacterNamesWriteOnce(t *testing.T) {
	s := NewStore()

	if !s.PutCharacterName("c1", "Gandalf") {
		t.Error("first PutCharacterName should store")
	}
	if s.PutCharacterName("c1", "Saruman") {
		t.Error("second PutCharacterName for the same id should be ignored")
	}

	name, ok := s.CharacterName("c1")
	if !ok || name != "Gandalf" {
		t.Errorf("CharacterName(c1) = %q, %v; want Gandalf", name, ok)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.PutMovies(model.Movie{ID: "m1"})
	s.PutQuotes("m1", map[model.QuoteID]model.Quote{"q1": {ID: "q1"}})
	s.PutCharacterName("c1", "Gandalf")
	s.MarkAllMoviesLoaded()

	before := s.Stats()
	want := Stats{Movies: 1, QuoteSets: 1, Quotes: 1, Characters: 1, AllMoviesLoaded: true}
	if before != want {
		t.Fatalf("Stats() = %+v, want %+v", before, want)
	}

	s.Clear()

	if got := s.Stats(); got != (Stats{}) {
		t.Errorf("Stats() after Clear = %+v, want zero", got)
	}
	if s.AllMoviesLoaded() {
		t.Error("Clear should reset the all-movies flag")
	}
	if !s.PutCharacterName("c1", "Frodo") {
		t.Error("Clear should allow character names to be written again")
	}
}
