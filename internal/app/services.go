package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cleanmanager/cleanmanager/internal/observability"
	"github.com/cleanmanager/cleanmanager/internal/platform/cache"
	"github.com/cleanmanager/cleanmanager/internal/platform/db"
	"github.com/cleanmanager/cleanmanager/internal/platform/supa"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
	"github.com/cleanmanager/cleanmanager/internal/settings"
)

// Services holds the domain services shared by the server, worker and CLI.
type Services struct {
	Profitability *profitability.Service
	Settings      *settings.Service
	Cache         *profitability.Cache
	Redis         *redis.Client
	Pool          *pgxpool.Pool
}

// NewServices connects the configured data source and cache. A Redis that
// cannot be reached disables caching instead of failing startup.
func NewServices(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := &Services{}

	var (
		source profitability.RowSource
		store  settings.Store
	)
	if cfg.UsesPostgres() {
		pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		out.Pool = pool
		source = profitability.NewPGSource(pool)
		store = settings.NewPGStore(pool)
	} else {
		client := supa.NewClient(cfg.SupaAPIURL, cfg.SupaTimeout)
		source = profitability.NewAPISource(client)
		store = settings.NewAPIStore(client)
	}

	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
			_ = client.Close()
		} else {
			out.Redis = client
			out.Cache = profitability.NewCache(client, cfg.CacheTTL)
		}
	}

	svc := profitability.NewService(profitability.NewSnapshotLoader(source, logger), out.Cache, logger).
		WithTrendMonths(cfg.TrendMonths)
	if metrics != nil {
		svc.WithObserver(metrics)
	}
	out.Profitability = svc
	out.Settings = settings.NewService(store, svc, logger)
	return out, nil
}

// Close releases the pool and the Redis client.
func (s *Services) Close() {
	if s == nil {
		return
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
}
