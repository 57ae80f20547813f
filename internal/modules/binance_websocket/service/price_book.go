package service

import (
	"sync"
	"time"
)

type quote struct {
	price float64
	at    time.Time
}

// PriceBook keeps the latest streamed price per symbol.
type PriceBook struct {
	mu     sync.RWMutex
	prices map[string]quote
	now    func() time.Time
}

func NewPriceBook() *PriceBook {
	return &PriceBook{
		prices: make(map[string]quote),
		now:    time.Now,
	}
}

func (b *PriceBook) Set(symbol string, price float64) {
	if price <= 0 {
		return
	}
	b.mu.Lock()
	b.prices[symbol] = quote{price: price, at: b.now()}
	b.mu.Unlock()
}

// Get returns the price if it is younger than maxAge. A zero maxAge accepts any age.
func (b *PriceBook) Get(symbol string, maxAge time.Duration) (float64, bool) {
	b.mu.RLock()
	q, ok := b.prices[symbol]
	b.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if maxAge > 0 && b.now().Sub(q.at) > maxAge {
		return 0, false
	}
	return q.price, true
}

func (b *PriceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.prices)
}
