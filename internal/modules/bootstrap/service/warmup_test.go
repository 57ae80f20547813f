package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mtf_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Send(msg string) {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
}

func (f *fakeNotifier) Sendf(format string, args ...any) { f.Send(fmt.Sprintf(format, args...)) }

type fakeMarket struct {
	missing map[string]bool
	broken  map[string]bool
	delay   time.Duration

	active, peak atomic.Int32
	loaded       sync.Map
}

func (f *fakeMarket) ExchangeFilters(_ context.Context, symbol string) (models.ExchangeFilters, error) {
	if f.missing[symbol] {
		return models.ExchangeFilters{}, models.ErrInstrumentMetadataMissing
	}
	return models.ExchangeFilters{}, nil
}

func (f *fakeMarket) Series(_ context.Context, symbol string, tfs []models.Timeframe) (map[models.Timeframe][]models.Candle, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	if f.broken[symbol] {
		return nil, errors.New("timeout")
	}
	f.loaded.Store(symbol, tfs)
	return map[models.Timeframe][]models.Candle{}, nil
}

func TestWarmupReport(t *testing.T) {
	m := &fakeMarket{
		missing: map[string]bool{"FOOUSDT": true},
		broken:  map[string]bool{"BARUSDT": true},
	}
	n := &fakeNotifier{}
	w := NewWarmuper(m, m, n, 2)

	rep := w.Warmup(context.Background(), []string{"ETHUSDT", "FOOUSDT", "BTCUSDT", "BARUSDT"}, []models.Timeframe{"5m", "1h"})

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, rep.Ready)
	assert.Equal(t, []string{"FOOUSDT"}, rep.Missing)
	require.Contains(t, rep.Failed, "BARUSDT")
	assert.Contains(t, rep.Failed["BARUSDT"].Error(), "candles BARUSDT")

	tfs, ok := m.loaded.Load("ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, []models.Timeframe{"5m", "1h"}, tfs)

	require.Len(t, n.msgs, 3)
	assert.Contains(t, n.msgs[1], "FOOUSDT")
	assert.Equal(t, "⚠️ warmup finished: ready=2 failed=1", n.msgs[2])
}

func TestWarmupBoundsParallelism(t *testing.T) {
	m := &fakeMarket{delay: 20 * time.Millisecond}
	w := NewWarmuper(m, m, &fakeNotifier{}, 3)

	syms := make([]string, 12)
	for i := range syms {
		syms[i] = fmt.Sprintf("S%dUSDT", i)
	}
	rep := w.Warmup(context.Background(), syms, []models.Timeframe{"1m"})

	assert.Len(t, rep.Ready, 12)
	assert.LessOrEqual(t, m.peak.Load(), int32(3))
}

func TestWarmupEmpty(t *testing.T) {
	n := &fakeNotifier{}
	rep := NewWarmuper(&fakeMarket{}, &fakeMarket{}, n, 0).Warmup(context.Background(), nil, nil)

	assert.Empty(t, rep.Ready)
	assert.Empty(t, n.msgs)
}

func TestWarmupCancelled(t *testing.T) {
	m := &fakeMarket{delay: 50 * time.Millisecond}
	w := NewWarmuper(m, m, &fakeNotifier{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := w.Warmup(ctx, []string{"AUSDT", "BUSDT"}, []models.Timeframe{"1m"})
	assert.Len(t, rep.Failed, 2)
	for _, err := range rep.Failed {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
