package runner

import (
	"context"
	"time"

	"mtf_bot/internal/runner/position"
)

// PriceSource is a streamed last-price cache.
type PriceSource interface {
	Get(symbol string, maxAge time.Duration) (float64, bool)
}

// Exchange routes last-price reads to the stream when it has a fresh quote and
// everything else to the REST client.
type Exchange struct {
	position.Exchange
	prices PriceSource
	maxAge time.Duration
}

func NewExchange(rest position.Exchange, prices PriceSource, maxAge time.Duration) *Exchange {
	return &Exchange{Exchange: rest, prices: prices, maxAge: maxAge}
}

func (e *Exchange) LastPrice(ctx context.Context, symbol string) (float64, error) {
	if e.prices != nil {
		if px, ok := e.prices.Get(symbol, e.maxAge); ok {
			return px, nil
		}
	}
	return e.Exchange.LastPrice(ctx, symbol)
}
