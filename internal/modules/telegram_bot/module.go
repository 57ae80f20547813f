package telegram

import (
	"context"

	"mtf_bot/internal/modules/config"
	dlservice "mtf_bot/internal/modules/decisionlog/service"
	"mtf_bot/internal/modules/telegram_bot/service"
	"mtf_bot/internal/notify"
	"mtf_bot/internal/runner"
	"mtf_bot/internal/runner/position"
	"mtf_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewNotifier returns the Telegram bot plus the log notifier, or only the log notifier
// when no token is configured.
func NewNotifier(
	lc fx.Lifecycle,
	cfg *config.Config,
	registry *runner.Registry,
	positions *position.Manager,
	history dlservice.Log,
) (notify.Notifier, error) {
	if cfg.Telegram.Token == "" {
		logger.Info("[TG] no token, notifications go to the log")
		return notify.NewStdout(), nil
	}

	t, err := service.NewTelegram(cfg.Telegram.Token, service.Config{
		DefaultSpend:   cfg.Trading.AmountToSpend,
		ChatIDs:        cfg.Telegram.ChatIDs,
		AllowedChatIDs: cfg.Telegram.AllowedChatIDs,
	}, registry, positions, history)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go t.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			t.Stop()
			return nil
		},
	})
	return notify.Multi{notify.NewStdout(), t}, nil
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewNotifier,
		),
	)
}
