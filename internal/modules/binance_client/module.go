package binance_client

import (
	"go.uber.org/fx"

	"mtf_bot/internal/modules/binance_client/service"
	"mtf_bot/internal/modules/config"
	market "mtf_bot/internal/modules/market/service"
)

func NewClient(cfg *config.Config) *service.Client {
	return service.NewClient(service.Config{
		BaseURL:    cfg.Binance.BaseURL,
		APIKey:     cfg.Binance.APIKey,
		APISecret:  cfg.Binance.APISecret,
		RecvWindow: cfg.Binance.RecvWindow,
		Timeout:    cfg.Binance.Timeout,
		FiltersTTL: cfg.Binance.FiltersTTL,
	})
}

// Module provides the REST client and exposes it as the market cache source.
func Module() fx.Option {
	return fx.Module("binance_client",
		fx.Provide(
			NewClient,
			func(c *service.Client) market.CandleSource { return c },
		),
	)
}
