package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"mtf_bot/internal/models"
)

// MyTrades returns the latest account fills of symbol, oldest first.
func (c *Client) MyTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var rows []struct {
		Symbol  string `json:"symbol"`
		ID      int64  `json:"id"`
		OrderID int64  `json:"orderId"`
		Price   string `json:"price"`
		Qty     string `json:"qty"`
		IsBuyer bool   `json:"isBuyer"`
		Time    int64  `json:"time"`
	}
	if err := c.do(ctx, "GET", "/api/v3/myTrades", q, true, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Trade, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Trade{
			Symbol:  r.Symbol,
			ID:      r.ID,
			OrderID: r.OrderID,
			Price:   parseFloat(r.Price),
			Qty:     parseFloat(r.Qty),
			IsBuyer: r.IsBuyer,
			Time:    time.UnixMilli(r.Time),
		})
	}
	return out, nil
}
