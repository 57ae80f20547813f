package service

import (
	"context"
	"fmt"

	"mtf_bot/internal/models"
	"mtf_bot/internal/modules/decisionlog/service/pg/decisions"
	"mtf_bot/internal/modules/decisionlog/service/pg/migrations"
	"mtf_bot/pkg/db"

	"github.com/jackc/pgx/v5"
)

type PgLog struct {
	db        db.TxManager
	decisions *decisions.Decisions
}

func NewPgLog(db db.TxManager) *PgLog {
	return &PgLog{
		db:        db,
		decisions: decisions.New(),
	}
}

// Migrate creates the decisions table when it is missing.
func (l *PgLog) Migrate(ctx context.Context) error {
	return migrations.Apply(ctx, l.db.Conn())
}

func (l *PgLog) Save(ctx context.Context, d models.Decision) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.SaveDecision: %w", err)
		}
	}()
	return l.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			_, err := l.decisions.Insert(ctxTx, tx, &d)
			return err
		})
}

func (l *PgLog) Recent(ctx context.Context, symbol string, limit int) (out []models.Decision, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RecentDecisions: %w", err)
		}
	}()
	if limit <= 0 {
		return nil, nil
	}
	return l.decisions.ListRecent(ctx, l.db.Conn(), symbol, limit)
}
