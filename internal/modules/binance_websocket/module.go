package binance_websocket

import (
	"context"

	"go.uber.org/fx"

	"mtf_bot/internal/helper"
	"mtf_bot/internal/modules/binance_websocket/service"
	"mtf_bot/internal/modules/config"
	health "mtf_bot/internal/modules/health/service"
	"mtf_bot/pkg/logger"
)

func NewStream(cfg *config.Config, book *service.PriceBook, state *health.State) *service.Stream {
	s := service.NewStream(cfg.Binance.StreamURL, book, state)
	syms := make([]string, 0, len(cfg.Trading.Symbols))
	for _, ins := range cfg.Trading.Symbols {
		syms = append(syms, helper.NormSymbol(ins.Symbol))
	}
	s.SetSymbols(syms)
	return s
}

// Module streams last prices into the shared PriceBook.
func Module() fx.Option {
	return fx.Module("binance_websocket",
		fx.Provide(
			service.NewPriceBook,
			NewStream,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *service.Stream) {
			if !cfg.Binance.StreamEnabled {
				logger.Info("[WS] price stream disabled, using REST ticker")
				return
			}
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						s.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
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
