package main

import (
	"context"
	"log"

	"mtf_bot/internal/modules/binance_client"
	"mtf_bot/internal/modules/binance_websocket"
	"mtf_bot/internal/modules/bootstrap"
	"mtf_bot/internal/modules/config"
	"mtf_bot/internal/modules/decisionlog"
	"mtf_bot/internal/modules/health"
	"mtf_bot/internal/modules/market"
	"mtf_bot/internal/modules/metrics"
	"mtf_bot/internal/modules/postgres"
	"mtf_bot/internal/modules/strategy"
	telegram "mtf_bot/internal/modules/telegram_bot"
	"mtf_bot/internal/runner"
	"mtf_bot/pkg/logger"
	"mtf_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger.SetServiceName(cfg.Service.Name)
	if err = logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tracing.SetServiceName(cfg.Service.Name)
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		logger.Fatal("init tracer: %v", err)
	}
	defer closeTracer()

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		metrics.Module(),
		health.Module(),
		postgres.Module(),
		decisionlog.Module(),
		binance_client.Module(),
		binance_websocket.Module(),
		market.Module(),
		strategy.Module(),
		runner.Module(),
		telegram.Module(),
		bootstrap.Module(),
	)
	app.Run()
}
