// Package position runs the per-instrument Flat/Entering/Open/Exiting state machine
// against the exchange.
package position

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mtf_bot/internal/helper"
	"mtf_bot/internal/models"
	"mtf_bot/internal/runner/sizing"
)

// Exchange is the subset of the exchange client the manager trades through.
type Exchange interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
	ExchangeFilters(ctx context.Context, symbol string) (models.ExchangeFilters, error)
	OpenOrders(ctx context.Context, symbol string) ([]models.Order, error)
	PlaceOrder(ctx context.Context, r models.OrderRequest) (models.OrderResult, error)
	PlaceOCO(ctx context.Context, r models.OCORequest) (models.OCOResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	CancelOrderList(ctx context.Context, symbol string, orderListID int64) error
	MyTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
}

type Config struct {
	MinProfitPct    float64
	DecisionWindow  time.Duration
	DecisionHistory int
	TradeLookback   int
}

type instrument struct {
	state      models.PositionState
	entryPrice float64
	quantity   decimal.Decimal
	listID     int64
	updatedAt  time.Time
	decisions  *ring
}

// Manager owns the trading state of every instrument. Handle for one symbol must not
// run concurrently with itself; the scheduler guarantees that.
type Manager struct {
	ex    Exchange
	sizer *sizing.Normalizer
	cfg   Config
	now   func() time.Time

	mu     sync.RWMutex
	states map[string]*instrument
}

func NewManager(ex Exchange, sizer *sizing.Normalizer, cfg Config) *Manager {
	if cfg.DecisionHistory <= 0 {
		cfg.DecisionHistory = 20
	}
	if cfg.TradeLookback <= 0 {
		cfg.TradeLookback = 50
	}
	return &Manager{
		ex:     ex,
		sizer:  sizer,
		cfg:    cfg,
		now:    time.Now,
		states: make(map[string]*instrument),
	}
}

// get returns the instrument record, creating a Flat one on first use. Callers hold m.mu.
func (m *Manager) get(symbol string) *instrument {
	st, ok := m.states[symbol]
	if !ok {
		st = &instrument{state: models.StateFlat, listID: -1, decisions: newRing(m.cfg.DecisionHistory)}
		m.states[symbol] = st
	}
	return st
}

func (m *Manager) view(symbol string) instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.get(symbol)
}

func (m *Manager) update(symbol string, fn func(st *instrument)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.get(symbol)
	fn(st)
	st.updatedAt = m.now()
}

func (m *Manager) setState(symbol string, s models.PositionState) {
	m.update(symbol, func(st *instrument) { st.state = s })
}

func (m *Manager) unresolvedBuy(symbol string, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(symbol).decisions.unresolvedBuy(at, m.cfg.DecisionWindow)
}

// Record appends a decision to the instrument history without acting on it.
func (m *Manager) Record(d models.Decision) {
	m.mu.Lock()
	m.get(d.Symbol).decisions.push(d)
	m.mu.Unlock()
}

// Handle applies one cycle's signal. d carries the evaluation context and comes back
// with Action, Detail and Price filled in; it is recorded in the history either way.
func (m *Manager) Handle(ctx context.Context, d models.Decision, spend float64, sig models.TradeSignal) (models.Decision, error) {
	if d.At.IsZero() {
		d.At = m.now()
	}
	d.Side = sig.Side()
	d.TakeProfitPct = sig.TakeProfitPct

	var err error
	switch d.Side {
	case models.SideBuy:
		d, err = m.buy(ctx, d, spend, sig.TakeProfitPct)
	case models.SideSell:
		d, err = m.sell(ctx, d)
	default:
		d.Action = models.ActionNone
	}
	if err != nil && d.Action == "" {
		d.Action = models.ActionFailed
	}
	if err != nil && d.Detail == "" {
		d.Detail = err.Error()
	}
	m.Record(d)
	return d, err
}

func (m *Manager) buy(ctx context.Context, d models.Decision, spend, tpPct float64) (models.Decision, error) {
	sym := d.Symbol
	st := m.view(sym)

	// An open position may have been closed by its bracket since the last cycle.
	if st.state == models.StateOpen {
		state, err := m.Reconcile(ctx, sym)
		if err != nil {
			return d, err
		}
		st.state = state
	}
	if st.state != models.StateFlat {
		d.Action = models.ActionSkippedOpen
		d.Detail = "position " + string(st.state)
		return d, nil
	}
	if m.unresolvedBuy(sym, d.At) {
		d.Action = models.ActionSuppressed
		d.Detail = "unresolved buy in window"
		return d, nil
	}

	orders, err := m.ex.OpenOrders(ctx, sym)
	if err != nil {
		return d, fmt.Errorf("open orders: %w", err)
	}
	if protective := protectiveOrders(orders); len(protective) > 0 {
		m.adopt(sym, orders)
		d.Action = models.ActionReconciled
		d.Detail = fmt.Sprintf("%d protective orders on exchange, adopted as open", len(protective))
		return d, nil
	}
	if len(orders) > 0 {
		d.Action = models.ActionSuppressed
		d.Detail = fmt.Sprintf("%d open orders on exchange", len(orders))
		return d, nil
	}

	filters, err := m.ex.ExchangeFilters(ctx, sym)
	if err != nil {
		return d, fmt.Errorf("filters: %w", err)
	}
	price, err := m.ex.LastPrice(ctx, sym)
	if err != nil {
		return d, fmt.Errorf("last price: %w", err)
	}
	d.Price = price

	order, err := m.sizer.Quantity(spend, price, filters)
	if err != nil {
		d.Action = models.ActionFailed
		return d, err
	}

	m.setState(sym, models.StateEntering)
	res, err := m.ex.PlaceOrder(ctx, models.OrderRequest{
		Symbol:   sym,
		Side:     models.SideBuy,
		Type:     models.OrderMarket,
		Quantity: order.QuantityString(),
	})
	if err != nil {
		m.setState(sym, models.StateFlat)
		return d, fmt.Errorf("market buy: %w", err)
	}

	entry := res.AvgPrice
	if entry <= 0 {
		entry = price
	}
	qty := order.Quantity
	if res.ExecutedQty > 0 {
		if q, err := m.sizer.FloorQuantity(res.ExecutedQty, filters); err == nil {
			qty = q
		}
	}
	m.update(sym, func(st *instrument) {
		st.state = models.StateOpen
		st.entryPrice = entry
		st.quantity = qty
		st.listID = -1
	})
	d.Action = models.ActionEntered
	d.Price = entry

	br, err := m.sizer.Bracket(entry, tpPct, filters)
	if err != nil {
		d.Detail = fmt.Sprintf("bought %s @ %v, bracket not placed", qty, entry)
		return d, fmt.Errorf("%w: %v", models.ErrBracketFailed, err)
	}
	oco, err := m.ex.PlaceOCO(ctx, models.OCORequest{
		Symbol:         sym,
		Side:           models.SideSell,
		Quantity:       qty.String(),
		Price:          br.TakeProfit.String(),
		StopPrice:      br.Stop.String(),
		StopLimitPrice: br.StopLimit.String(),
	})
	if err != nil {
		d.Detail = fmt.Sprintf("bought %s @ %v, bracket not placed", qty, entry)
		return d, fmt.Errorf("%w: %v", models.ErrBracketFailed, err)
	}

	m.update(sym, func(st *instrument) { st.listID = oco.OrderListID })
	d.Detail = fmt.Sprintf("bought %s @ %v, tp %s stop %s/%s", qty, entry, br.TakeProfit, br.Stop, br.StopLimit)
	return d, nil
}

func (m *Manager) sell(ctx context.Context, d models.Decision) (models.Decision, error) {
	sym := d.Symbol

	orders, err := m.ex.OpenOrders(ctx, sym)
	if err != nil {
		return d, fmt.Errorf("open orders: %w", err)
	}
	protective := protectiveOrders(orders)

	st := m.view(sym)
	if st.state == models.StateFlat {
		if len(protective) == 0 {
			d.Action = models.ActionNone
			d.Detail = "no position"
			return d, nil
		}
		m.adopt(sym, orders)
		st = m.view(sym)
	}

	filters, err := m.ex.ExchangeFilters(ctx, sym)
	if err != nil {
		return d, fmt.Errorf("filters: %w", err)
	}

	if len(protective) == 0 {
		return m.sellUnprotected(ctx, d, st, filters)
	}

	price, err := m.ex.LastPrice(ctx, sym)
	if err != nil {
		return d, fmt.Errorf("last price: %w", err)
	}
	d.Price = price

	entry := st.entryPrice
	if entry <= 0 {
		trade, ok, err := m.lastTrade(ctx, sym, true)
		if err != nil {
			return d, err
		}
		if !ok {
			d.Action = models.ActionFailed
			return d, fmt.Errorf("%w: %s", models.ErrEntryPriceUnavailable, sym)
		}
		entry = trade.Price
		m.update(sym, func(st *instrument) { st.entryPrice = entry })
	}

	profit := helper.ProfitPct(entry, price)
	if profit < m.cfg.MinProfitPct {
		d.Action = models.ActionExitDeferred
		d.Detail = fmt.Sprintf("profit %.2f%% < %.2f%%", profit, m.cfg.MinProfitPct)
		return d, nil
	}

	qty, err := m.sizer.FloorQuantity(protective[0].OrigQty, filters)
	if err != nil {
		return d, err
	}

	m.setState(sym, models.StateExiting)
	if err := m.cancelProtective(ctx, sym, protective); err != nil {
		m.setState(sym, models.StateOpen)
		return d, err
	}
	if _, err := m.ex.PlaceOrder(ctx, models.OrderRequest{
		Symbol:   sym,
		Side:     models.SideSell,
		Type:     models.OrderMarket,
		Quantity: qty.String(),
	}); err != nil {
		m.setState(sym, models.StateOpen)
		return d, fmt.Errorf("market sell: %w", err)
	}

	m.flatten(sym)
	d.Action = models.ActionExited
	d.Detail = fmt.Sprintf("sold %s at %.2f%% profit", qty, profit)
	return d, nil
}

// sellUnprotected handles an open position without a bracket: either it was closed
// outside the bot, or it is sold right away.
func (m *Manager) sellUnprotected(ctx context.Context, d models.Decision, st instrument, filters models.ExchangeFilters) (models.Decision, error) {
	sym := d.Symbol

	last, ok, err := m.lastTrade(ctx, sym, false)
	if err != nil {
		return d, err
	}
	if ok && !last.IsBuyer {
		m.flatten(sym)
		d.Action = models.ActionClosedExt
		d.Detail = fmt.Sprintf("last fill was a sell @ %v", last.Price)
		return d, nil
	}

	qty := st.quantity
	if !qty.IsPositive() && ok {
		qty, err = m.sizer.FloorQuantity(last.Qty, filters)
		if err != nil {
			return d, err
		}
	}
	if !qty.IsPositive() {
		d.Action = models.ActionFailed
		return d, fmt.Errorf("%w: %s unknown position size", models.ErrEntryPriceUnavailable, sym)
	}

	m.setState(sym, models.StateExiting)
	res, err := m.ex.PlaceOrder(ctx, models.OrderRequest{
		Symbol:   sym,
		Side:     models.SideSell,
		Type:     models.OrderMarket,
		Quantity: qty.String(),
	})
	if err != nil {
		m.setState(sym, models.StateOpen)
		return d, fmt.Errorf("market sell: %w", err)
	}

	m.flatten(sym)
	d.Action = models.ActionExited
	d.Price = res.AvgPrice
	d.Detail = fmt.Sprintf("sold %s, no protective orders", qty)
	return d, nil
}

// Reconcile aligns local state with the exchange without a signal.
func (m *Manager) Reconcile(ctx context.Context, symbol string) (models.PositionState, error) {
	orders, err := m.ex.OpenOrders(ctx, symbol)
	if err != nil {
		return m.view(symbol).state, fmt.Errorf("open orders: %w", err)
	}
	st := m.view(symbol)
	switch {
	case len(protectiveOrders(orders)) > 0 && st.state == models.StateFlat:
		m.adopt(symbol, orders)
	case len(orders) == 0 && st.state == models.StateOpen:
		last, ok, err := m.lastTrade(ctx, symbol, false)
		if err != nil {
			return st.state, err
		}
		if ok && !last.IsBuyer {
			m.flatten(symbol)
			m.Record(models.Decision{Symbol: symbol, At: m.now(), Action: models.ActionClosedExt, Price: last.Price})
		}
	}
	return m.view(symbol).state, nil
}

// adopt marks the instrument Open when the exchange holds protective orders for it.
func (m *Manager) adopt(symbol string, orders []models.Order) {
	protective := protectiveOrders(orders)
	if len(protective) == 0 {
		return
	}
	m.update(symbol, func(st *instrument) {
		st.state = models.StateOpen
		st.listID = protective[0].OrderListID
		if !st.quantity.IsPositive() {
			st.quantity = decimal.NewFromFloat(protective[0].OrigQty)
		}
	})
}

func (m *Manager) flatten(symbol string) {
	m.update(symbol, func(st *instrument) {
		st.state = models.StateFlat
		st.entryPrice = 0
		st.quantity = decimal.Zero
		st.listID = -1
	})
}

// cancelProtective cancels each OCO list once and standalone orders one by one.
func (m *Manager) cancelProtective(ctx context.Context, symbol string, orders []models.Order) error {
	lists := make(map[int64]struct{})
	for _, o := range orders {
		if o.OrderListID >= 0 {
			if _, done := lists[o.OrderListID]; done {
				continue
			}
			lists[o.OrderListID] = struct{}{}
			if err := m.ex.CancelOrderList(ctx, symbol, o.OrderListID); err != nil {
				return fmt.Errorf("cancel list %d: %w", o.OrderListID, err)
			}
			continue
		}
		if err := m.ex.CancelOrder(ctx, symbol, o.OrderID); err != nil {
			return fmt.Errorf("cancel order %d: %w", o.OrderID, err)
		}
	}
	return nil
}

// lastTrade returns the newest fill; with buyerOnly it returns the newest buy fill.
func (m *Manager) lastTrade(ctx context.Context, symbol string, buyerOnly bool) (models.Trade, bool, error) {
	trades, err := m.ex.MyTrades(ctx, symbol, m.cfg.TradeLookback)
	if err != nil {
		return models.Trade{}, false, fmt.Errorf("trades: %w", err)
	}
	for i := len(trades) - 1; i >= 0; i-- {
		if !buyerOnly || trades[i].IsBuyer {
			return trades[i], true, nil
		}
	}
	return models.Trade{}, false, nil
}

func protectiveOrders(orders []models.Order) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if o.Side == models.SideSell && o.Type.Protective() {
			out = append(out, o)
		}
	}
	return out
}

// Snapshot returns a copy of every known instrument state.
func (m *Manager) Snapshot() []models.PositionView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PositionView, 0, len(m.states))
	for sym, st := range m.states {
		out = append(out, models.PositionView{
			Symbol:          sym,
			State:           st.state,
			HasOpenPosition: st.state == models.StateOpen || st.state == models.StateExiting,
			EntryPrice:      st.entryPrice,
			Quantity:        st.quantity.String(),
			UpdatedAt:       st.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (m *Manager) State(symbol string) models.PositionView {
	st := m.view(symbol)
	return models.PositionView{
		Symbol:          symbol,
		State:           st.state,
		HasOpenPosition: st.state == models.StateOpen || st.state == models.StateExiting,
		EntryPrice:      st.entryPrice,
		Quantity:        st.quantity.String(),
		UpdatedAt:       st.updatedAt,
	}
}

// Decisions returns the recorded history of symbol, oldest first.
func (m *Manager) Decisions(symbol string) []models.Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[symbol]
	if !ok {
		return nil
	}
	return st.decisions.list()
}

func (m *Manager) LastDecision(symbol string) (models.Decision, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[symbol]
	if !ok {
		return models.Decision{}, false
	}
	return st.decisions.last()
}

// Forget drops the state of a removed instrument.
func (m *Manager) Forget(symbol string) {
	m.mu.Lock()
	delete(m.states, symbol)
	m.mu.Unlock()
}
