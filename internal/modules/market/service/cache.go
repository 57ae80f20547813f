package service

import (
	"context"
	"fmt"

	"mtf_bot/internal/helper"
	"mtf_bot/internal/models"
	"mtf_bot/pkg/logger"
)

// CandleSource is the exchange side of the cache.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error)
}

// Recorder receives cache hit/miss observations.
type Recorder interface {
	CacheLookup(tf string, hit bool)
}

// Cache serves candle series from the store and falls back to the exchange on a miss.
type Cache struct {
	store Store
	src   CandleSource
	limit int
	rec   Recorder
}

func NewCache(store Store, src CandleSource, limit int, rec Recorder) *Cache {
	return &Cache{store: store, src: src, limit: limit, rec: rec}
}

func (c *Cache) Candles(ctx context.Context, symbol string, tf models.Timeframe) ([]models.Candle, error) {
	key := helper.CacheKey(symbol, tf)

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("[CACHE] get %s: %v", key, err)
	}
	if ok {
		cs, err := DecodeCandles(data)
		if err == nil {
			c.observe(tf, true)
			return cs, nil
		}
		logger.Warn("[CACHE] decode %s: %v", key, err)
	}
	c.observe(tf, false)

	cs, err := c.src.Candles(ctx, symbol, tf, c.limit)
	if err != nil {
		return nil, fmt.Errorf("candles %s: %w", key, err)
	}
	if err := c.Put(ctx, symbol, tf, cs); err != nil {
		logger.Warn("[CACHE] set %s: %v", key, err)
	}
	return cs, nil
}

// Series loads every requested timeframe for one instrument.
func (c *Cache) Series(ctx context.Context, symbol string, tfs []models.Timeframe) (map[models.Timeframe][]models.Candle, error) {
	out := make(map[models.Timeframe][]models.Candle, len(tfs))
	for _, tf := range tfs {
		cs, err := c.Candles(ctx, symbol, tf)
		if err != nil {
			return nil, err
		}
		out[tf] = cs
	}
	return out, nil
}

func (c *Cache) Put(ctx context.Context, symbol string, tf models.Timeframe, cs []models.Candle) error {
	data, err := EncodeCandles(cs)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, helper.CacheKey(symbol, tf), data, TTLFor(tf))
}

func (c *Cache) observe(tf models.Timeframe, hit bool) {
	if c.rec != nil {
		c.rec.CacheLookup(string(tf), hit)
	}
}
