package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"mtf_bot/internal/models"
)

const maxKlines = 1000

// Candles returns the most recent candles of the timeframe, oldest first.
func (c *Client) Candles(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > maxKlines {
		limit = maxKlines
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(tf))
	q.Set("limit", strconv.Itoa(limit))

	var rows [][]any
	if err := c.do(ctx, "GET", "/api/v3/klines", q, false, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("%w: kline %d of %s has %d fields", models.ErrExchangeRequestFailed, i, symbol, len(row))
		}
		out = append(out, models.Candle{
			OpenTime:  anyInt(row[0]),
			Open:      anyFloat(row[1]),
			High:      anyFloat(row[2]),
			Low:       anyFloat(row[3]),
			Close:     anyFloat(row[4]),
			Volume:    anyFloat(row[5]),
			CloseTime: anyInt(row[6]),
		})
	}
	return out, nil
}

func anyFloat(v any) float64 {
	switch x := v.(type) {
	case string:
		return parseFloat(x)
	case float64:
		return x
	}
	return 0
}

func anyInt(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}
