package service

import (
	"context"
	"net/url"

	"mtf_bot/internal/models"
)

// PlaceOCO submits a take-profit limit and a stop-limit as one order list.
func (c *Client) PlaceOCO(ctx context.Context, r models.OCORequest) (models.OCOResult, error) {
	q := url.Values{}
	q.Set("symbol", r.Symbol)
	q.Set("side", string(r.Side))
	q.Set("quantity", r.Quantity)
	q.Set("price", r.Price)
	q.Set("stopPrice", r.StopPrice)
	q.Set("stopLimitPrice", r.StopLimitPrice)
	q.Set("stopLimitTimeInForce", "GTC")
	q.Set("listClientOrderId", newClientID())

	var resp struct {
		OrderListID       int64  `json:"orderListId"`
		ListClientOrderID string `json:"listClientOrderId"`
		ListOrderStatus   string `json:"listOrderStatus"`
		Orders            []struct {
			OrderID int64 `json:"orderId"`
		} `json:"orders"`
	}
	if err := c.do(ctx, "POST", "/api/v3/order/oco", q, true, &resp); err != nil {
		return models.OCOResult{}, err
	}

	res := models.OCOResult{
		OrderListID:       resp.OrderListID,
		ListClientOrderID: resp.ListClientOrderID,
		Status:            resp.ListOrderStatus,
	}
	for _, o := range resp.Orders {
		res.OrderIDs = append(res.OrderIDs, o.OrderID)
	}
	return res, nil
}
