package decisionlog

import (
	"context"
	"fmt"

	"mtf_bot/internal/modules/decisionlog/service"
	"mtf_bot/pkg/db"
	"mtf_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewLog returns the postgres decision log, or a no-op when the database is disabled.
func NewLog(ctx context.Context, m *db.PgTxManager) (service.Log, error) {
	if m == nil {
		return service.Nop{}, nil
	}
	l := service.NewPgLog(m)
	if err := l.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("decision log migrate: %w", err)
	}
	logger.Info("[PG] decision log enabled")
	return l, nil
}

func Module() fx.Option {
	return fx.Module("decisionlog",
		fx.Provide(
			NewLog,
		),
	)
}
