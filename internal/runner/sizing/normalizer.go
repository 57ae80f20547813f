// Package sizing turns a spend target into exchange-legal order quantities and prices.
// All arithmetic is exact decimal; quantities and prices are truncated, never rounded.
package sizing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"mtf_bot/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Policy controls the optional spend adjustment and the bracket distances.
type Policy struct {
	AdjustSpend  bool
	MaxSpend     float64 // 0 means no cap
	StopLossPct  float64
	StopLimitPct float64
}

// Order is a normalized market order size.
type Order struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Spend    decimal.Decimal
	Notional decimal.Decimal
	Adjusted bool
}

func (o Order) QuantityString() string { return o.Quantity.String() }

// Bracket holds the tick-aligned prices of a protective OCO.
type Bracket struct {
	TakeProfit decimal.Decimal
	Stop       decimal.Decimal
	StopLimit  decimal.Decimal
}

type Normalizer struct {
	policy Policy
}

func NewNormalizer(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Quantity sizes a buy of spend quote units at price.
func (n *Normalizer) Quantity(spend, price float64, f models.ExchangeFilters) (Order, error) {
	if spend <= 0 || price <= 0 {
		return Order{}, fmt.Errorf("%w: spend=%v price=%v", models.ErrQuantityBelowMinimum, spend, price)
	}
	if err := checkFilters(f); err != nil {
		return Order{}, err
	}

	p := decimal.NewFromFloat(price)
	o, err := size(decimal.NewFromFloat(spend), p, f)
	if err == nil || !errors.Is(err, models.ErrNotionalBelowMinimum) || !n.policy.AdjustSpend {
		return o, err
	}

	// one retry with the smallest spend clearing minNotional after flooring
	adjusted := f.MinNotional.Add(f.StepSize.Mul(p))
	if n.policy.MaxSpend > 0 && adjusted.GreaterThan(decimal.NewFromFloat(n.policy.MaxSpend)) {
		return Order{}, fmt.Errorf("%w: adjusted spend %s exceeds max %v", err, adjusted, n.policy.MaxSpend)
	}
	o, err = size(adjusted, p, f)
	o.Adjusted = err == nil
	return o, err
}

// FloorQuantity aligns an already held quantity (e.g. an executed fill) to the lot step.
func (n *Normalizer) FloorQuantity(qty float64, f models.ExchangeFilters) (decimal.Decimal, error) {
	if err := checkFilters(f); err != nil {
		return decimal.Zero, err
	}
	q := FloorToStep(decimal.NewFromFloat(qty), f.StepSize)
	if q.IsZero() || q.LessThan(f.MinQty) {
		return decimal.Zero, fmt.Errorf("%w: qty %s < minQty %s", models.ErrQuantityBelowMinimum, q, f.MinQty)
	}
	return q, nil
}

// Bracket derives take-profit, stop and stop-limit prices from the entry.
func (n *Normalizer) Bracket(entry, takeProfitPct float64, f models.ExchangeFilters) (Bracket, error) {
	if entry <= 0 {
		return Bracket{}, fmt.Errorf("bracket: entry price %v", entry)
	}
	if err := checkFilters(f); err != nil {
		return Bracket{}, err
	}

	e := decimal.NewFromFloat(entry)
	b := Bracket{
		TakeProfit: FloorToStep(e.Mul(up(takeProfitPct)), f.TickSize),
		Stop:       FloorToStep(e.Mul(down(n.policy.StopLossPct)), f.TickSize),
	}
	b.StopLimit = FloorToStep(b.Stop.Mul(down(n.policy.StopLimitPct)), f.TickSize)

	if !b.StopLimit.IsPositive() || !b.Stop.IsPositive() {
		return Bracket{}, fmt.Errorf("bracket: non-positive stop for entry %s", e)
	}
	return b, nil
}

// FloorPrice truncates a price to the tick.
func (n *Normalizer) FloorPrice(price float64, f models.ExchangeFilters) decimal.Decimal {
	return FloorToStep(decimal.NewFromFloat(price), f.TickSize)
}

// FloorToStep truncates v to a whole multiple of step.
func FloorToStep(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}
	q, _ := v.QuoRem(step, 0)
	return q.Mul(step)
}

func size(spend, price decimal.Decimal, f models.ExchangeFilters) (Order, error) {
	raw, _ := spend.QuoRem(price, 18)
	qty := FloorToStep(raw, f.StepSize)

	o := Order{Quantity: qty, Price: price, Spend: spend, Notional: qty.Mul(price)}
	if qty.IsZero() || qty.LessThan(f.MinQty) {
		return o, fmt.Errorf("%w: %s qty %s (raw %s) < minQty %s",
			models.ErrQuantityBelowMinimum, f.Symbol, qty, raw, f.MinQty)
	}
	if o.Notional.LessThan(f.MinNotional) {
		return o, fmt.Errorf("%w: %s notional %s < %s",
			models.ErrNotionalBelowMinimum, f.Symbol, o.Notional, f.MinNotional)
	}
	return o, nil
}

func checkFilters(f models.ExchangeFilters) error {
	if !f.StepSize.IsPositive() || !f.TickSize.IsPositive() {
		return fmt.Errorf("%w: %s step=%s tick=%s",
			models.ErrInstrumentMetadataMissing, f.Symbol, f.StepSize, f.TickSize)
	}
	return nil
}

func up(pct float64) decimal.Decimal {
	return decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct).Div(hundred))
}

func down(pct float64) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct).Div(hundred))
}
