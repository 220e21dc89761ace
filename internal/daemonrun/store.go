package daemonrun

import (
	"context"
	"fmt"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/project"
	"reelcast/internal/project/redisstore"
	"reelcast/internal/project/sqlstore"
)

// OpenStore opens the configured project store backend.
func OpenStore(ctx context.Context, cfg *config.Config) (project.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch cfg.Store.Backend {
	case "", config.StoreMemory:
		return project.NewMemoryStore(), nil
	case config.StoreSQLite, config.StorePostgres:
		dialect, err := sqlstore.ParseDialect(cfg.Store.Backend)
		if err != nil {
			return nil, err
		}
		store, err := sqlstore.Open(ctx, dialect, cfg.StoreDSN())
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
		}
		return store, nil
	case config.StoreRedis:
		var opts []redisstore.Option
		if hours := cfg.Retention.MaxAgeHours; hours > 0 {
			// The TTL trails the sweep window by an hour.
			opts = append(opts, redisstore.WithTTL(time.Duration(hours+1)*time.Hour))
		}
		store, err := redisstore.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
