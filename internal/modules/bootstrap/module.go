package bootstrap

import (
	"context"

	binance "mtf_bot/internal/modules/binance_client/service"
	bootstrap "mtf_bot/internal/modules/bootstrap/service"
	"mtf_bot/internal/modules/config"
	market "mtf_bot/internal/modules/market/service"
	strategy "mtf_bot/internal/modules/strategy/service"
	"mtf_bot/internal/notify"
	"mtf_bot/internal/runner"
	"mtf_bot/pkg/logger"

	"go.uber.org/fx"
)

func NewWarmuper(cfg *config.Config, cache *market.Cache, client *binance.Client, n notify.Notifier) *bootstrap.Warmuper {
	return bootstrap.NewWarmuper(cache, client, n, cfg.Trading.WarmupParallel)
}

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			NewWarmuper,
		),
		fx.Invoke(func(lc fx.Lifecycle, reg *runner.Registry, engine *strategy.Engine, wu *bootstrap.Warmuper) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						rep := wu.Warmup(ctx, reg.Symbols(), engine.Config().RequiredTimeframes())
						logger.Info("[BOOT] warmup done: ready=%d missing=%d failed=%d",
							len(rep.Ready), len(rep.Missing), len(rep.Failed))
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
