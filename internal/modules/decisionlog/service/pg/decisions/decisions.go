package decisions

import (
	"context"
	"fmt"
	"time"

	"mtf_bot/internal/models"
	"mtf_bot/internal/modules/decisionlog/service/pg/decisions/sql"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgtype"
)

type Decisions struct {
	sql *sql.Queries
}

func New() *Decisions {
	return &Decisions{
		sql: sql.New(),
	}
}

func (d *Decisions) Insert(ctx context.Context, db sql.DBTX, dec *models.Decision) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Decisions.Insert: %w", err)
		}
	}()

	trends, err := sonic.Marshal(dec.Trends)
	if err != nil {
		return 0, err
	}

	return d.sql.Insert(ctx, db, &sql.InsertParams{
		Symbol:        dec.Symbol,
		DecidedAt:     pgtype.Timestamptz{Time: dec.At.UTC(), Valid: true},
		Side:          string(dec.Side),
		Trend:         string(dec.Trend),
		Trends:        trends,
		TakeProfitPct: dec.TakeProfitPct,
		Price:         dec.Price,
		Action:        string(dec.Action),
		Detail:        dec.Detail,
	})
}

// ListRecent returns up to limit decisions of a symbol, newest first.
func (d *Decisions) ListRecent(ctx context.Context, db sql.DBTX, symbol string, limit int) (out []models.Decision, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Decisions.ListRecent: %w", err)
		}
	}()

	rows, err := d.sql.ListRecent(ctx, db, &sql.ListRecentParams{
		Symbol: symbol,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, err
	}

	out = make([]models.Decision, 0, len(rows))
	for _, row := range rows {
		dec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, dec)
	}
	return out, nil
}

func fromRow(row sql.Decision) (models.Decision, error) {
	dec := models.Decision{
		Symbol:        row.Symbol,
		Side:          models.Side(row.Side),
		Trend:         models.Trend(row.Trend),
		TakeProfitPct: row.TakeProfitPct,
		Price:         row.Price,
		Action:        models.Action(row.Action),
		Detail:        row.Detail,
	}
	if row.DecidedAt.Valid {
		dec.At = row.DecidedAt.Time.In(time.UTC)
	}
	if len(row.Trends) > 0 {
		if err := sonic.Unmarshal(row.Trends, &dec.Trends); err != nil {
			return dec, fmt.Errorf("decode trends of %d: %w", row.ID, err)
		}
	}
	return dec, nil
}
