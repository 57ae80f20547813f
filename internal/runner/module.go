package runner

import (
	"context"
	"time"

	"mtf_bot/internal/models"
	binance "mtf_bot/internal/modules/binance_client/service"
	ws "mtf_bot/internal/modules/binance_websocket/service"
	"mtf_bot/internal/modules/config"
	dlservice "mtf_bot/internal/modules/decisionlog/service"
	health "mtf_bot/internal/modules/health/service"
	market "mtf_bot/internal/modules/market/service"
	metrics "mtf_bot/internal/modules/metrics/service"
	strategy "mtf_bot/internal/modules/strategy/service"
	"mtf_bot/internal/notify"
	"mtf_bot/internal/runner/position"
	"mtf_bot/internal/runner/sizing"
	"mtf_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewConfiguredRegistry seeds the registry with the configured symbols and keeps the
// price stream subscribed to its contents.
func NewConfiguredRegistry(cfg *config.Config, stream *ws.Stream) *Registry {
	r := NewRegistry()
	for _, s := range cfg.Trading.Symbols {
		r.Add(s.Symbol, s.Spend)
	}
	r.OnChange(stream.SetSymbols)
	return r
}

func NewNormalizer(cfg *config.Config) *sizing.Normalizer {
	return sizing.NewNormalizer(sizing.Policy{
		AdjustSpend:  cfg.Trading.AdjustSpend,
		MaxSpend:     cfg.Trading.MaxSpend,
		StopLossPct:  cfg.Trading.StopLossPct,
		StopLimitPct: cfg.Trading.StopLimitPct,
	})
}

func NewPositionManager(cfg *config.Config, client *binance.Client, book *ws.PriceBook, sizer *sizing.Normalizer) *position.Manager {
	var prices PriceSource
	if cfg.Binance.StreamEnabled {
		prices = book
	}
	return position.NewManager(NewExchange(client, prices, cfg.Binance.PriceMaxAge), sizer, position.Config{
		MinProfitPct:    cfg.Trading.MinProfitPct,
		DecisionWindow:  cfg.Trading.DecisionWindow,
		DecisionHistory: cfg.Trading.DecisionHistory,
	})
}

type params struct {
	fx.In

	Cfg       *config.Config
	Engine    *strategy.Engine
	Registry  *Registry
	Cache     *market.Cache
	Positions *position.Manager
	Notifier  notify.Notifier
	Log       dlservice.Log
	Recorder  *metrics.Recorder
	State     *health.State
}

func NewRunner(p params) *Runner {
	return New(Config{
		Interval:      p.Cfg.Trading.Interval,
		DefaultSpend:  p.Cfg.Trading.AmountToSpend,
		Timeframes:    p.Engine.Config().RequiredTimeframes(),
		ErrorCooldown: p.Cfg.Telegram.ErrorCooldown,
	}, Deps{
		Registry:  p.Registry,
		Candles:   p.Cache,
		Engine:    p.Engine,
		Positions: p.Positions,
		Notifier:  p.Notifier,
		Log:       p.Log,
		Recorder:  p.Recorder,
		Status:    p.State,
	})
}

// Module wires the scheduler, the position manager and the order normalizer.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewConfiguredRegistry,
			NewNormalizer,
			NewPositionManager,
			NewRunner,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner, pm *position.Manager, state *health.State) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						reconcile(ctx, pm, r.Registry().Symbols())
						state.SetReady(true)
						r.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					state.SetReady(false)
					cancel()
					select {
					case <-done:
					case <-stopCtx.Done():
					}
					return nil
				},
			})
		}),
	)
}

// reconcile adopts brackets left on the exchange by a previous run.
func reconcile(ctx context.Context, pm *position.Manager, symbols []string) {
	for _, sym := range symbols {
		rctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		st, err := pm.Reconcile(rctx, sym)
		cancel()
		if err != nil {
			logger.Warn("[RUNNER] reconcile %s: %v", sym, err)
			continue
		}
		if st != models.StateFlat {
			logger.Info("[RUNNER] %s restored as %s", sym, st)
		}
	}
}
