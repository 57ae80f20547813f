package service

import (
	"context"
	"fmt"
	"net/url"

	"mtf_bot/internal/models"
)

func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.do(ctx, "GET", "/api/v3/ticker/price", q, false, &payload); err != nil {
		return 0, err
	}
	px := parseFloat(payload.Price)
	if px <= 0 {
		return 0, fmt.Errorf("%w: %s price %q", models.ErrExchangeRequestFailed, symbol, payload.Price)
	}
	return px, nil
}
