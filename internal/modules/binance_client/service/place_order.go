package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"mtf_bot/internal/models"
)

type orderResponse struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	ClientOrderID       string `json:"clientOrderId"`
	Status              string `json:"status"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
}

func newClientID() string {
	return "mtf-" + uuid.NewString()[:28]
}

// PlaceOrder submits a single order and waits for the FULL acknowledgement.
func (c *Client) PlaceOrder(ctx context.Context, r models.OrderRequest) (models.OrderResult, error) {
	q := url.Values{}
	q.Set("symbol", r.Symbol)
	q.Set("side", string(r.Side))
	q.Set("type", string(r.Type))
	q.Set("quantity", r.Quantity)
	if r.Price != "" {
		q.Set("price", r.Price)
	}
	if r.StopPrice != "" {
		q.Set("stopPrice", r.StopPrice)
	}
	if r.TimeInForce != "" {
		q.Set("timeInForce", r.TimeInForce)
	}
	q.Set("newClientOrderId", newClientID())
	q.Set("newOrderRespType", "FULL")

	var resp orderResponse
	if err := c.do(ctx, "POST", "/api/v3/order", q, true, &resp); err != nil {
		return models.OrderResult{}, err
	}

	res := models.OrderResult{
		Symbol:        resp.Symbol,
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Status:        resp.Status,
		ExecutedQty:   parseFloat(resp.ExecutedQty),
		QuoteQty:      parseFloat(resp.CummulativeQuoteQty),
	}
	if res.ExecutedQty > 0 {
		res.AvgPrice = res.QuoteQty / res.ExecutedQty
	}
	return res, nil
}
