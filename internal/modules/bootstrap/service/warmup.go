package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"mtf_bot/internal/models"
	"mtf_bot/internal/notify"
	"mtf_bot/pkg/logger"
)

// SeriesLoader primes the candle cache.
type SeriesLoader interface {
	Series(ctx context.Context, symbol string, tfs []models.Timeframe) (map[models.Timeframe][]models.Candle, error)
}

type FiltersSource interface {
	ExchangeFilters(ctx context.Context, symbol string) (models.ExchangeFilters, error)
}

// Report is the outcome of one warmup.
type Report struct {
	Ready   []string
	Missing []string
	Failed  map[string]error
}

type Warmuper struct {
	candles SeriesLoader
	filters FiltersSource
	n       notify.Notifier

	// bounds parallel REST calls to stay under the rate limit
	sem chan struct{}
}

func NewWarmuper(candles SeriesLoader, filters FiltersSource, n notify.Notifier, parallel int) *Warmuper {
	if parallel <= 0 {
		parallel = 8
	}
	return &Warmuper{
		candles: candles,
		filters: filters,
		n:       n,
		sem:     make(chan struct{}, parallel),
	}
}

// Warmup loads exchange filters and every required candle series of each symbol.
func (w *Warmuper) Warmup(ctx context.Context, symbols []string, tfs []models.Timeframe) Report {
	rep := Report{Failed: make(map[string]error)}
	if len(symbols) == 0 {
		return rep
	}

	w.n.Sendf("🔥 warmup start: symbols=%d timeframes=%v", len(symbols), tfs)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.acquire(ctx)
			if err == nil {
				err = w.one(ctx, sym, tfs)
				<-w.sem
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				rep.Ready = append(rep.Ready, sym)
			case errors.Is(err, models.ErrInstrumentMetadataMissing):
				rep.Missing = append(rep.Missing, sym)
			default:
				rep.Failed[sym] = err
			}
		}()
	}
	wg.Wait()

	sort.Strings(rep.Ready)
	sort.Strings(rep.Missing)
	w.announce(rep)
	return rep
}

func (w *Warmuper) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case w.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Warmuper) one(ctx context.Context, sym string, tfs []models.Timeframe) error {
	if _, err := w.filters.ExchangeFilters(ctx, sym); err != nil {
		return fmt.Errorf("filters %s: %w", sym, err)
	}
	if _, err := w.candles.Series(ctx, sym, tfs); err != nil {
		return fmt.Errorf("candles %s: %w", sym, err)
	}
	return nil
}

func (w *Warmuper) announce(rep Report) {
	for sym, err := range rep.Failed {
		logger.Warn("[BOOT] warmup %s: %v", sym, err)
	}
	if len(rep.Missing) > 0 {
		w.n.Sendf("⚠️ no exchange metadata for %v, these symbols will not trade", rep.Missing)
	}
	if len(rep.Failed) > 0 {
		w.n.Sendf("⚠️ warmup finished: ready=%d failed=%d", len(rep.Ready), len(rep.Failed))
		return
	}
	w.n.Sendf("✅ warmup finished: ready=%d", len(rep.Ready))
}
