package market

import (
	"context"
	"time"

	"go.uber.org/fx"

	"mtf_bot/internal/modules/config"
	"mtf_bot/internal/modules/market/service"
	metrics "mtf_bot/internal/modules/metrics/service"
	"mtf_bot/pkg/logger"
)

// NewStore picks the candle store backend.
func NewStore(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (service.Store, error) {
	if cfg.Cache.Backend != "redis" {
		mem := service.NewMemoryStore()
		stop := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go janitor(mem, stop)
				return nil
			},
			OnStop: func(context.Context) error {
				close(stop)
				return nil
			},
		})
		return mem, nil
	}

	rs, err := service.NewRedisStore(ctx, service.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rs.Close()
		},
	})
	logger.Info("[CACHE] redis store at %s", cfg.Redis.Addr)
	return rs, nil
}

func janitor(mem *service.MemoryStore, stop <-chan struct{}) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if n := mem.Purge(); n > 0 {
				logger.Debug("[CACHE] purged %d expired entries", n)
			}
		}
	}
}

func NewCache(cfg *config.Config, store service.Store, src service.CandleSource, rec *metrics.Recorder) *service.Cache {
	return service.NewCache(store, src, cfg.Strategy.CandleLimit, rec)
}

func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			NewStore,
			NewCache,
		),
	)
}
