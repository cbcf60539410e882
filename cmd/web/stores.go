package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/lecturefeed/pkg/config"
	"github.com/dmitrymomot/lecturefeed/pkg/httpserver"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/pg"
	"github.com/dmitrymomot/lecturefeed/pkg/ratelimiter"
	"github.com/dmitrymomot/lecturefeed/pkg/redis"
	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

type sessionBackend struct {
	store  session.Store
	limits ratelimiter.Store
	checks map[string]httpserver.Check
	close  func()
}

// openSessionStore connects the backend named by kind. Backends without
// their own expiry are swept every cfg.CleanupInterval until ctx ends.
func openSessionStore(ctx context.Context, kind string, cfg session.Config, log *slog.Logger) (*sessionBackend, error) {
	switch kind {
	case storeMemory, "":
		st := session.NewMemoryStore(cfg.CleanupInterval)
		limits := ratelimiter.NewMemoryStore(cfg.CleanupInterval)
		return &sessionBackend{
			store:  st,
			limits: limits,
			close: func() {
				_ = st.Close()
				_ = limits.Close()
			},
		}, nil

	case storeRedis:
		var rc redis.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		return &sessionBackend{
			store:  session.NewRedisStore(client),
			limits: ratelimiter.NewRedisStore(client, ""),
			checks: map[string]httpserver.Check{"redis": redis.Healthcheck(client)},
			close:  func() { _ = client.Close() },
		}, nil

	case storePostgres:
		var pc pg.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pc, session.Migrations, session.MigrationsDir, log); err != nil {
			pool.Close()
			return nil, err
		}
		st := session.NewPostgresStore(pool)
		limits := ratelimiter.NewMemoryStore(cfg.CleanupInterval)
		sweepCtx, cancel := context.WithCancel(ctx)
		go sweepExpired(sweepCtx, st, cfg.CleanupInterval, log)
		return &sessionBackend{
			store:  st,
			limits: limits,
			checks: map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)},
			close: func() {
				cancel()
				_ = limits.Close()
				pool.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown SESSION_STORE %q", kind)
}

func sweepExpired(ctx context.Context, st session.Store, every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := st.DeleteExpired(ctx); err != nil && ctx.Err() == nil {
				log.WarnContext(ctx, "session sweep failed", logger.Error(err))
			}
		}
	}
}
