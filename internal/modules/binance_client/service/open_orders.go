package service

import (
	"context"
	"net/url"
	"time"

	"mtf_bot/internal/models"
)

type openOrder struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	OrderListID   int64  `json:"orderListId"`
	ClientOrderID string `json:"clientOrderId"`
	Price         string `json:"price"`
	StopPrice     string `json:"stopPrice"`
	OrigQty       string `json:"origQty"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	Side          string `json:"side"`
	Time          int64  `json:"time"`
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var rows []openOrder
	if err := c.do(ctx, "GET", "/api/v3/openOrders", q, true, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(rows))
	for _, o := range rows {
		out = append(out, models.Order{
			Symbol:        o.Symbol,
			OrderID:       o.OrderID,
			OrderListID:   o.OrderListID,
			ClientOrderID: o.ClientOrderID,
			Side:          models.Side(o.Side),
			Type:          models.OrderType(o.Type),
			Price:         parseFloat(o.Price),
			StopPrice:     parseFloat(o.StopPrice),
			OrigQty:       parseFloat(o.OrigQty),
			Status:        o.Status,
			Time:          time.UnixMilli(o.Time),
		})
	}
	return out, nil
}
