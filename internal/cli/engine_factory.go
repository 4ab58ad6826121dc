package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/internal/config"
	"github.com/aretw0/strata/pkg/adapters/file"
	loamAdapter "github.com/aretw0/strata/pkg/adapters/loam"
	"github.com/aretw0/strata/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/strata/pkg/adapters/redis"
	"github.com/aretw0/strata/pkg/persistence/middleware"
	"github.com/aretw0/strata/pkg/ports"
)

// NewEngine initializes a Strata engine over the store selected by cfg.
// The returned cleanup closes the engine and any store connection.
func NewEngine(cfg config.Config, logger *slog.Logger, extra ...strata.Option) (*strata.Engine, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	opts := []strata.Option{
		strata.WithLogger(logger),
		strata.WithMaxDepth(cfg.MaxDepth),
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = append(opts, strata.WithLifecycleHooks(DebugHooks(logger)))
	}

	var (
		store      ports.AssetStore
		closeStore func() error
	)
	switch cfg.Store {
	case config.StoreFile:
		store = file.New(cfg.Dir)
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreRedis:
		rs := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithTTL(cfg.Redis.TTL),
		)
		store, closeStore = rs, rs.Close
	case config.StoreLoam:
		source, err := loamAdapter.Init(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, strata.WithSource(source))
	}

	if store != nil {
		if cfg.Encryption.Key != "" {
			keys, err := cfg.Encryption.Keys()
			if err != nil {
				return nil, nil, err
			}
			mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
				ActiveKey:    keys[0],
				FallbackKeys: keys[1:],
			})
			if err != nil {
				return nil, nil, err
			}
			store = middleware.Chain(store, mw)
			logger.Debug("Layer encryption enabled", "fallback_keys", len(keys)-1)
		}
		opts = append(opts, strata.WithAssetStore(store))
	}

	engine, err := strata.New(cfg.Dir, append(opts, extra...)...)
	if err != nil {
		if closeStore != nil {
			_ = closeStore()
		}
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}

	cleanup := func() {
		if err := engine.Close(); err != nil {
			logger.Warn("Engine close failed", "err", err)
		}
		if closeStore != nil {
			if err := closeStore(); err != nil {
				logger.Warn("Store close failed", "err", err)
			}
		}
	}
	return engine, cleanup, nil
}
