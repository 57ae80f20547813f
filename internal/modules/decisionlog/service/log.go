package service

import (
	"context"

	"mtf_bot/internal/models"
)

// Log persists processing-cycle decisions.
type Log interface {
	Save(ctx context.Context, d models.Decision) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.Decision, error)
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Save(context.Context, models.Decision) error { return nil }

func (Nop) Recent(context.Context, string, int) ([]models.Decision, error) { return nil, nil }
