package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeFilters holds an instrument's quantization rules.
type ExchangeFilters struct {
	Symbol      string
	MinQty      decimal.Decimal
	StepSize    decimal.Decimal
	TickSize    decimal.Decimal
	MinNotional decimal.Decimal
	FetchedAt   time.Time
}

type OrderType string

const (
	OrderMarket        OrderType = "MARKET"
	OrderLimit         OrderType = "LIMIT"
	OrderLimitMaker    OrderType = "LIMIT_MAKER"
	OrderStopLoss      OrderType = "STOP_LOSS"
	OrderStopLossLimit OrderType = "STOP_LOSS_LIMIT"
	OrderTakeProfit    OrderType = "TAKE_PROFIT"
	OrderTakeProfitLim OrderType = "TAKE_PROFIT_LIMIT"
)

// Protective reports whether the order type is a leg of a bracket.
func (t OrderType) Protective() bool {
	switch t {
	case OrderLimitMaker, OrderStopLoss, OrderStopLossLimit, OrderTakeProfit, OrderTakeProfitLim:
		return true
	}
	return false
}

// Order is an open order as reported by the exchange.
type Order struct {
	Symbol        string
	OrderID       int64
	OrderListID   int64
	ClientOrderID string
	Side          Side
	Type          OrderType
	Price         float64
	StopPrice     float64
	OrigQty       float64
	Status        string
	Time          time.Time
}

// OrderRequest is a single order submission. Quantities and prices are exchange strings.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Quantity    string
	Price       string
	StopPrice   string
	TimeInForce string
}

// OrderResult is the exchange acknowledgement of a placed order.
type OrderResult struct {
	Symbol        string
	OrderID       int64
	ClientOrderID string
	Status        string
	ExecutedQty   float64
	QuoteQty      float64
	AvgPrice      float64
}

// OCORequest places a take-profit limit and a stop-limit that cancel each other.
type OCORequest struct {
	Symbol         string
	Side           Side
	Quantity       string
	Price          string
	StopPrice      string
	StopLimitPrice string
}

type OCOResult struct {
	OrderListID       int64
	ListClientOrderID string
	Status            string
	OrderIDs          []int64
}

// Trade is one fill from the account trade history.
type Trade struct {
	Symbol  string
	ID      int64
	OrderID int64
	Price   float64
	Qty     float64
	IsBuyer bool
	Time    time.Time
}
