// Package api provides the HTTP client for the-one-api.dev: one request per call,
// Bearer authentication, page decoding and error classification.
// It has no retry, rate limiting or caching of its own.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://the-one-api.dev/v2"

// Route templates used as metric labels.
const (
	RouteMovies      = "/movie"
	RouteMovie       = "/movie/{id}"
	RouteMovieQuotes = "/movie/{id}/quote"
	RouteCharacter   = "/character/{id}"
)

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oneapi_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oneapi_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oneapi_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Client is the API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, without trailing slash.
	BaseURL string

	// Token is the personal access token sent as a Bearer credential.
	Token string

	// Timeout for a single HTTP exchange. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default transport (tests, proxies).
	HTTPClient *http.Client

	// Logger receives one debug line per response. Nil uses the global logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration for the public API.
func DefaultConfig(token string) Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Token:   token,
		Timeout: 30 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := log.With().Str("component", "oneapi-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logger,
	}, nil
}

// ListMovies returns one page of the movie listing.
func (c *Client) ListMovies(ctx context.Context, opts ListOptions) (*Page[Movie], error) {
	return fetch[Movie](ctx, c, RouteMovies, "/movie", opts)
}

// GetMovie returns the single-record page for a movie id.
// An unknown id yields either ErrNotFound or an empty page, depending on the server.
func (c *Client) GetMovie(ctx context.Context, id string) (*Page[Movie], error) {
	return fetch[Movie](ctx, c, RouteMovie, "/movie/"+url.PathEscape(id), ListOptions{})
}

// GetMovieQuotes returns one page of the quotes of a movie.
func (c *Client) GetMovieQuotes(ctx context.Context, movieID string, opts ListOptions) (*Page[Quote], error) {
	return fetch[Quote](ctx, c, RouteMovieQuotes, "/movie/"+url.PathEscape(movieID)+"/quote", opts)
}

// GetCharacterName resolves a character id to its name.
// The lookup must return exactly one record, otherwise ErrDataInconsistency is returned.
// A blank name resolves to the id itself; the upstream data has characters without names.
func (c *Client) GetCharacterName(ctx context.Context, id string) (string, error) {
	page, err := fetch[character](ctx, c, RouteCharacter, "/character/"+url.PathEscape(id), ListOptions{})
	if err != nil {
		return "", err
	}
	if len(page.Docs) != 1 {
		errorsTotal.WithLabelValues(string(ErrorClassDataInconsistency)).Inc()
		return "", fmt.Errorf("%w: invalid character id %s: got %d records", ErrDataInconsistency, id, len(page.Docs))
	}
	if strings.TrimSpace(page.Docs[0].Name) == "" {
		return id, nil
	}
	return page.Docs[0].Name, nil
}

// fetch performs one GET and decodes a page of T.
func fetch[T any](ctx context.Context, c *Client, route, path string, opts ListOptions) (*Page[T], error) {
	params, err := query.Values(opts.query())
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	target := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(route).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(route, "network_error").Inc()
		return nil, fmt.Errorf("%s %s: %w", req.Method, target, err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Str("method", req.Method).
		Str("url", target).
		Msg("fetch")

	if resp.StatusCode != http.StatusOK {
		class, sentinel := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		if class == ErrorClassTooManyRequests {
			c.logger.Warn().Str("endpoint", route).Msg("Too many requests")
		}
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Method:     req.Method,
			URL:        target,
			Err:        sentinel,
		}
	}

	var page Page[T]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", route, err)
	}
	return &page, nil
}
