package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/oneapi-client/internal/filter"
	"github.com/Sternrassler/oneapi-client/pkg/api"
	"github.com/Sternrassler/oneapi-client/pkg/catalog"
	"github.com/Sternrassler/oneapi-client/pkg/logging"
	"github.com/Sternrassler/oneapi-client/pkg/metrics"
)

// Server exposes a Catalog over HTTP. Facade calls are serialised because a
// Catalog is single-caller.
type Server struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewServer wraps c.
func NewServer(c *catalog.Catalog, logger zerolog.Logger) *Server {
	return &Server{catalog: c, logger: logger}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /movies", s.moviesHandler)
	mux.HandleFunc("GET /movies/{id}", s.movieHandler)
	mux.HandleFunc("GET /movies/{id}/quotes", s.quotesHandler)
	mux.HandleFunc("GET /characters/{id}", s.characterHandler)
	mux.HandleFunc("GET /cache", s.cacheStatsHandler)
	mux.HandleFunc("POST /cache/clear", s.clearCacheHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) moviesHandler(w http.ResponseWriter, r *http.Request) {
	var f *filter.MovieFilter
	if expr := r.URL.Query().Get("filter"); expr != "" {
		var err error
		if f, err = filter.Compile(expr); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	s.mu.Lock()
	movies, err := s.catalog.AllMovies(r.Context())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	matched, err := filter.Apply(f, movies)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) movieHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	m, err := s.catalog.Movie(r.Context(), r.PathValue("id"))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) quotesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	quotes, err := s.catalog.MovieQuotes(r.Context(), r.PathValue("id"))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) characterHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	name, err := s.catalog.CharacterName(r.Context(), id)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": name})
}

func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.catalog.Stats()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.catalog.ClearCache()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps catalog errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Err(err).Int("status", status).Str("error_class", string(api.ClassOf(err))).Msg("Request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *app) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, closeFn, err := openCatalog(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			logger := logging.NewLogger("server")
			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           NewServer(c, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("Starting server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info().Msg("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
