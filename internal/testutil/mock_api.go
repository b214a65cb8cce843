// Package testutil provides testing utilities for the API client and SDK.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/Sternrassler/oneapi-client/pkg/api"
)

// MockAPI is an in-process fake of the-one-api.dev serving paged movie, quote and character data.
type MockAPI struct {
	server *httptest.Server
	token  string

	mu         sync.RWMutex
	handlers   map[string]func(w http.ResponseWriter, r *http.Request)
	movies     []api.Movie
	quotes     map[string][]api.Quote
	characters map[string]string
	queued     []int
	paths      []string
}

// NewMockAPI starts a mock server that accepts the given Bearer token.
func NewMockAPI(token string) *MockAPI {
	mock := &MockAPI{
		token:      token,
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		quotes:     make(map[string][]api.Quote),
		characters: make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.paths = append(mock.paths, r.URL.Path)
		var status int
		if len(mock.queued) > 0 {
			status = mock.queued[0]
			mock.queued = mock.queued[1:]
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+mock.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized."})
			return
		}
		if exists {
			handler(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the base URL to configure the client with.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears request tracking and queued statuses. Data is kept.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = nil
	m.queued = nil
}

// SetHandler overrides the response for an exact path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// AddMovies appends movies to the listing.
func (m *MockAPI) AddMovies(movies ...api.Movie) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movies = append(m.movies, movies...)
}

// AddQuotes appends quotes to a movie.
func (m *MockAPI) AddQuotes(movieID string, quotes ...api.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[movieID] = append(m.quotes[movieID], quotes...)
}

// AddCharacter registers a character. An empty name is served as-is.
func (m *MockAPI) AddCharacter(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[id] = name
}

// QueueStatus makes the next len(codes) requests fail with the given statuses, in order,
// before authentication is checked.
func (m *MockAPI) QueueStatus(codes ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, codes...)
}

// GetRequestCount returns the number of requests received.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.paths)
}

// CountPrefix returns the number of requests whose path starts with prefix.
func (m *MockAPI) CountPrefix(prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.paths {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// Paths returns the request paths in arrival order.
func (m *MockAPI) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// defaultHandler routes /movie, /movie/{id}, /movie/{id}/quote and /character/{id}.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = api.DefaultLimit
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case len(parts) == 1 && parts[0] == "movie":
		writeJSON(w, http.StatusOK, paginate(m.movies, offset, limit))
	case len(parts) == 2 && parts[0] == "movie":
		var found []api.Movie
		for _, movie := range m.movies {
			if movie.ID == parts[1] {
				found = append(found, movie)
			}
		}
		writeJSON(w, http.StatusOK, paginate(found, 0, limit))
	case len(parts) == 3 && parts[0] == "movie" && parts[2] == "quote":
		writeJSON(w, http.StatusOK, paginate(m.quotes[parts[1]], offset, limit))
	case len(parts) == 2 && parts[0] == "character":
		var docs []map[string]string
		if name, ok := m.characters[parts[1]]; ok {
			docs = append(docs, map[string]string{"_id": parts[1], "name": name})
		}
		writeJSON(w, http.StatusOK, paginate(docs, 0, limit))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found."})
	}
}

func paginate[T any](all []T, offset, limit int) api.Page[T] {
	start := min(offset, len(all))
	end := min(start+limit, len(all))
	docs := append([]T{}, all[start:end]...)
	pages := (len(all) + limit - 1) / limit
	return api.Page[T]{
		Docs:   docs,
		Total:  len(all),
		Limit:  limit,
		Offset: offset,
		Page:   offset/limit + 1,
		Pages:  pages,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NewMovies builds n movies with ids movie-000 .. movie-(n-1).
func NewMovies(n int) []api.Movie {
	movies := make([]api.Movie, 0, n)
	for i := 0; i < n; i++ {
		movies = append(movies, api.Movie{
			ID:                      fmt.Sprintf("movie-%03d", i),
			Name:                    fmt.Sprintf("Movie %d", i),
			RuntimeInMinutes:        float64(90 + i),
			BudgetInMillions:        float64(10 * i),
			AcademyAwardNominations: i % 4,
			AcademyAwardWins:        i % 2,
			RottenTomatoesScore:     float64(50 + i),
		})
	}
	return movies
}

// NewQuotes builds n quotes for movieID, cycling through characterIDs.
func NewQuotes(movieID string, n int, characterIDs ...string) []api.Quote {
	quotes := make([]api.Quote, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-quote-%03d", movieID, i)
		q := api.Quote{ID: id, Movie: movieID, Dialog: fmt.Sprintf("Line %d", i)}
		if len(characterIDs) > 0 {
			q.Character = characterIDs[i%len(characterIDs)]
		}
		quotes = append(quotes, q)
	}
	return quotes
}
