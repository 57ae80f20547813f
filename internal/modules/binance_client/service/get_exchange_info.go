package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"mtf_bot/internal/models"
)

type symbolFilter struct {
	FilterType  string `json:"filterType"`
	MinQty      string `json:"minQty"`
	StepSize    string `json:"stepSize"`
	TickSize    string `json:"tickSize"`
	MinNotional string `json:"minNotional"`
}

type symbolInfo struct {
	Symbol  string         `json:"symbol"`
	Status  string         `json:"status"`
	Filters []symbolFilter `json:"filters"`
}

// ExchangeFilters returns the quantization rules of symbol. Results are memoized
// for FiltersTTL.
func (c *Client) ExchangeFilters(ctx context.Context, symbol string) (models.ExchangeFilters, error) {
	c.mu.Lock()
	f, ok := c.filters[symbol]
	c.mu.Unlock()
	if ok && (c.filtersTTL <= 0 || c.now().Sub(f.FetchedAt) < c.filtersTTL) {
		return f, nil
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	var payload struct {
		Symbols []symbolInfo `json:"symbols"`
	}
	if err := c.do(ctx, "GET", "/api/v3/exchangeInfo", q, false, &payload); err != nil {
		return models.ExchangeFilters{}, err
	}

	var info *symbolInfo
	for i := range payload.Symbols {
		if payload.Symbols[i].Symbol == symbol {
			info = &payload.Symbols[i]
			break
		}
	}
	if info == nil {
		return models.ExchangeFilters{}, fmt.Errorf("%w: %s not listed", models.ErrInstrumentMetadataMissing, symbol)
	}

	f, err := parseFilters(symbol, info.Filters)
	if err != nil {
		return models.ExchangeFilters{}, err
	}
	f.FetchedAt = c.now()

	c.mu.Lock()
	c.filters[symbol] = f
	c.mu.Unlock()
	return f, nil
}

func parseFilters(symbol string, raw []symbolFilter) (models.ExchangeFilters, error) {
	f := models.ExchangeFilters{Symbol: symbol}
	var lot, price bool
	for _, r := range raw {
		switch r.FilterType {
		case "LOT_SIZE":
			minQty, err1 := decimal.NewFromString(r.MinQty)
			step, err2 := decimal.NewFromString(r.StepSize)
			if err1 != nil || err2 != nil {
				return f, fmt.Errorf("%w: %s LOT_SIZE %q/%q", models.ErrInstrumentMetadataMissing, symbol, r.MinQty, r.StepSize)
			}
			f.MinQty, f.StepSize, lot = minQty, step, true
		case "PRICE_FILTER":
			tick, err := decimal.NewFromString(r.TickSize)
			if err != nil {
				return f, fmt.Errorf("%w: %s PRICE_FILTER %q", models.ErrInstrumentMetadataMissing, symbol, r.TickSize)
			}
			f.TickSize, price = tick, true
		case "MIN_NOTIONAL", "NOTIONAL":
			if n, err := decimal.NewFromString(r.MinNotional); err == nil {
				f.MinNotional = n
			}
		}
	}
	if !lot || !price {
		return f, fmt.Errorf("%w: %s missing LOT_SIZE or PRICE_FILTER", models.ErrInstrumentMetadataMissing, symbol)
	}
	return f, nil
}
