package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/oneapi-client/internal/config"
	"github.com/Sternrassler/oneapi-client/pkg/api"
	"github.com/Sternrassler/oneapi-client/pkg/catalog"
	"github.com/Sternrassler/oneapi-client/pkg/logging"
	"github.com/Sternrassler/oneapi-client/pkg/ratelimit"
)

// openCatalog builds the API client and catalog from configuration.
// The returned close function releases the Redis connection, if any.
func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, func(), error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, nil, err
	}

	apiLogger := logging.NewLogger("api")
	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
		Logger:  &apiLogger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create api client: %w", err)
	}

	catLogger := logging.NewLogger("catalog")
	catCfg := catalog.Config{
		PageSize:          cfg.PageSize,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		RetryOnRateLimit:  cfg.RateLimit.RetryOnRateLimit,
		RetryBackoff:      cfg.RateLimit.RetryBackoff,
		Logger:            &catLogger,
	}

	closeFn := func() {}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		catCfg.RequestLog = ratelimit.NewRedisLog(redisClient, cfg.Redis.Key)
		closeFn = func() { _ = redisClient.Close() }
		catLogger.Info().Str("addr", cfg.Redis.Addr).Msg("Sharing request window through Redis")
	}

	c, err := catalog.New(client, catCfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return c, closeFn, nil
}
