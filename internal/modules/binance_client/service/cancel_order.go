package service

import (
	"context"
	"net/url"
	"strconv"
)

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("orderId", strconv.FormatInt(orderID, 10))
	return c.do(ctx, "DELETE", "/api/v3/order", q, true, nil)
}

// CancelOrderList cancels every leg of an OCO.
func (c *Client) CancelOrderList(ctx context.Context, symbol string, orderListID int64) error {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("orderListId", strconv.FormatInt(orderListID, 10))
	return c.do(ctx, "DELETE", "/api/v3/orderList", q, true, nil)
}
