package position

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mtf_bot/internal/models"
	"mtf_bot/internal/runner/sizing"
)

const sym = "BTCUSDT"

type mockExchange struct{ mock.Mock }

func (m *mockExchange) LastPrice(ctx context.Context, symbol string) (float64, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockExchange) ExchangeFilters(ctx context.Context, symbol string) (models.ExchangeFilters, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(models.ExchangeFilters), args.Error(1)
}

func (m *mockExchange) OpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockExchange) PlaceOrder(ctx context.Context, r models.OrderRequest) (models.OrderResult, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.OrderResult), args.Error(1)
}

func (m *mockExchange) PlaceOCO(ctx context.Context, r models.OCORequest) (models.OCOResult, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.OCOResult), args.Error(1)
}

func (m *mockExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	return m.Called(ctx, symbol, orderID).Error(0)
}

func (m *mockExchange) CancelOrderList(ctx context.Context, symbol string, orderListID int64) error {
	return m.Called(ctx, symbol, orderListID).Error(0)
}

func (m *mockExchange) MyTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	args := m.Called(ctx, symbol, limit)
	return args.Get(0).([]models.Trade), args.Error(1)
}

func filters() models.ExchangeFilters {
	return models.ExchangeFilters{
		Symbol:      sym,
		MinQty:      decimal.RequireFromString("0.0001"),
		StepSize:    decimal.RequireFromString("0.0001"),
		TickSize:    decimal.RequireFromString("0.01"),
		MinNotional: decimal.RequireFromString("5"),
	}
}

func newManager(ex Exchange) *Manager {
	sizer := sizing.NewNormalizer(sizing.Policy{StopLossPct: 2, StopLimitPct: 1})
	return NewManager(ex, sizer, Config{MinProfitPct: 1, DecisionWindow: time.Hour, DecisionHistory: 10, TradeLookback: 50})
}

func isSide(side models.Side) interface{} {
	return mock.MatchedBy(func(r models.OrderRequest) bool { return r.Side == side })
}

func bracketOrders() []models.Order {
	return []models.Order{
		{Symbol: sym, OrderID: 11, OrderListID: 7, Side: models.SideSell, Type: models.OrderStopLossLimit, OrigQty: 0.1},
		{Symbol: sym, OrderID: 12, OrderListID: 7, Side: models.SideSell, Type: models.OrderLimitMaker, OrigQty: 0.1},
	}
}

var (
	buySignal  = models.TradeSignal{Buy: true, TakeProfitPct: 3}
	sellSignal = models.TradeSignal{Sell: true, TakeProfitPct: 3}
)

// enter drives a Flat instrument to Open at entry 100 with a 0.1 quantity bracket.
func enter(t *testing.T, m *Manager, ex *mockExchange) {
	t.Helper()
	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("ExchangeFilters", mock.Anything, sym).Return(filters(), nil)
	ex.On("LastPrice", mock.Anything, sym).Return(100.0, nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideBuy)).
		Return(models.OrderResult{Symbol: sym, OrderID: 1, Status: "FILLED", ExecutedQty: 0.1, QuoteQty: 10, AvgPrice: 100}, nil).Once()
	ex.On("PlaceOCO", mock.Anything, mock.AnythingOfType("models.OCORequest")).
		Return(models.OCOResult{OrderListID: 7, OrderIDs: []int64{11, 12}}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)
	require.Equal(t, models.ActionEntered, d.Action)
	require.Equal(t, models.StateOpen, m.State(sym).State)
}

func TestBuyPlacesEntryAndBracket(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)

	enter(t, m, ex)

	ex.AssertCalled(t, "PlaceOCO", mock.Anything, models.OCORequest{
		Symbol: sym, Side: models.SideSell, Quantity: "0.1",
		Price: "103", StopPrice: "98", StopLimitPrice: "97.02",
	})
	v := m.State(sym)
	assert.True(t, v.HasOpenPosition)
	assert.Equal(t, 100.0, v.EntryPrice)
	assert.Equal(t, "0.1", v.Quantity)
}

func TestProfitableSellCancelsBracketAndGoesFlat(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	enter(t, m, ex)

	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()
	ex.On("LastPrice", mock.Anything, sym).Return(102.0, nil).Once()
	ex.On("CancelOrderList", mock.Anything, sym, int64(7)).Return(nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideSell)).
		Return(models.OrderResult{Symbol: sym, OrderID: 2, Status: "FILLED", ExecutedQty: 0.1, QuoteQty: 10.2, AvgPrice: 102}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionExited, d.Action)
	assert.Equal(t, models.StateFlat, m.State(sym).State)
	assert.False(t, m.State(sym).HasOpenPosition)
	ex.AssertNumberOfCalls(t, "CancelOrderList", 1)
	ex.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
	ex.AssertCalled(t, "PlaceOrder", mock.Anything, models.OrderRequest{
		Symbol: sym, Side: models.SideSell, Type: models.OrderMarket, Quantity: "0.1",
	})
}

func TestSellBelowThresholdIsNoop(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	enter(t, m, ex)

	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()
	ex.On("LastPrice", mock.Anything, sym).Return(100.5, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionExitDeferred, d.Action)
	assert.True(t, m.State(sym).HasOpenPosition)
	assert.Equal(t, models.StateOpen, m.State(sym).State)
	ex.AssertNotCalled(t, "CancelOrderList", mock.Anything, mock.Anything, mock.Anything)
	ex.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
	ex.AssertNumberOfCalls(t, "PlaceOrder", 1)
}

func TestSellWithoutProtectionSellsImmediately(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	enter(t, m, ex)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("MyTrades", mock.Anything, sym, 50).
		Return([]models.Trade{{Symbol: sym, ID: 1, Price: 100, Qty: 0.1, IsBuyer: true}}, nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideSell)).
		Return(models.OrderResult{Symbol: sym, ExecutedQty: 0.1, QuoteQty: 9.9, AvgPrice: 99}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionExited, d.Action)
	assert.Equal(t, models.StateFlat, m.State(sym).State)
	ex.AssertNumberOfCalls(t, "LastPrice", 1)
}

func TestExternalExitReconcilesToFlat(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	enter(t, m, ex)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("MyTrades", mock.Anything, sym, 50).Return([]models.Trade{
		{Symbol: sym, ID: 1, Price: 100, Qty: 0.1, IsBuyer: true},
		{Symbol: sym, ID: 2, Price: 103, Qty: 0.1, IsBuyer: false},
	}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionClosedExt, d.Action)
	assert.Equal(t, models.StateFlat, m.State(sym).State)
	ex.AssertNumberOfCalls(t, "PlaceOrder", 1)
}

func TestSellWhileFlatAdoptsBracketAndUsesTradeHistory(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)

	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()
	ex.On("ExchangeFilters", mock.Anything, sym).Return(filters(), nil)
	ex.On("LastPrice", mock.Anything, sym).Return(102.0, nil).Once()
	ex.On("MyTrades", mock.Anything, sym, 50).Return([]models.Trade{
		{Symbol: sym, ID: 1, Price: 90, Qty: 0.1, IsBuyer: true},
		{Symbol: sym, ID: 2, Price: 100, Qty: 0.1, IsBuyer: true},
	}, nil).Once()
	ex.On("CancelOrderList", mock.Anything, sym, int64(7)).Return(nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideSell)).Return(models.OrderResult{}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionExited, d.Action)
	assert.Contains(t, d.Detail, "2.00%")
	assert.Equal(t, models.StateFlat, m.State(sym).State)
}

func TestSellWhileFlatWithoutOrdersIsNoop(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)
	assert.Equal(t, models.ActionNone, d.Action)
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestMissingEntryPrice(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()
	ex.On("ExchangeFilters", mock.Anything, sym).Return(filters(), nil)
	ex.On("LastPrice", mock.Anything, sym).Return(102.0, nil).Once()
	ex.On("MyTrades", mock.Anything, sym, 50).Return([]models.Trade{}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.ErrorIs(t, err, models.ErrEntryPriceUnavailable)
	assert.Equal(t, models.ActionFailed, d.Action)
	assert.Equal(t, models.StateOpen, m.State(sym).State)
}

func TestBuySkippedWhileOpen(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	enter(t, m, ex)

	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)
	assert.Equal(t, models.ActionSkippedOpen, d.Action)
	ex.AssertNumberOfCalls(t, "PlaceOrder", 1)
	ex.AssertNotCalled(t, "MyTrades", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuyAfterBracketFilledOutsideEntersAgain(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }
	enter(t, m, ex)

	now = now.Add(15 * time.Minute)
	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Twice()
	ex.On("MyTrades", mock.Anything, sym, 50).Return([]models.Trade{
		{Symbol: sym, ID: 1, Price: 100, Qty: 0.1, IsBuyer: true},
		{Symbol: sym, ID: 2, Price: 103, Qty: 0.1, IsBuyer: false},
	}, nil).Once()
	ex.On("LastPrice", mock.Anything, sym).Return(104.0, nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideBuy)).
		Return(models.OrderResult{ExecutedQty: 0.1, QuoteQty: 10.4, AvgPrice: 104}, nil).Once()
	ex.On("PlaceOCO", mock.Anything, mock.Anything).Return(models.OCOResult{OrderListID: 8}, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionEntered, d.Action)
	assert.Equal(t, models.StateOpen, m.State(sym).State)
	ex.AssertNumberOfCalls(t, "PlaceOrder", 2)

	history := m.Decisions(sym)
	require.Len(t, history, 3)
	assert.Equal(t, models.ActionClosedExt, history[1].Action)
}

func TestBuyAdoptsExistingOrders(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionReconciled, d.Action)
	assert.Equal(t, models.StateOpen, m.State(sym).State)
	assert.Equal(t, "0.1", m.State(sym).Quantity)
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestBuyWithForeignOpenOrderIsSuppressed(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	pending := []models.Order{
		{Symbol: sym, OrderID: 21, OrderListID: -1, Side: models.SideBuy, Type: models.OrderLimit, OrigQty: 0.1, Price: 95},
	}
	ex.On("OpenOrders", mock.Anything, sym).Return(pending, nil).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)

	assert.Equal(t, models.ActionSuppressed, d.Action)
	assert.Equal(t, models.StateFlat, m.State(sym).State)
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()

	d, err = m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, sellSignal)
	require.NoError(t, err)
	assert.Equal(t, models.ActionNone, d.Action)
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	ex.AssertNotCalled(t, "MyTrades", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuySuppressedByUnresolvedBuy(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	m.Record(models.Decision{Symbol: sym, At: now.Add(-10 * time.Minute), Side: models.SideBuy, Action: models.ActionEntered})

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)
	assert.Equal(t, models.ActionSuppressed, d.Action)
	ex.AssertNotCalled(t, "OpenOrders", mock.Anything, mock.Anything)
}

func TestBracketFailureKeepsPositionOpen(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("ExchangeFilters", mock.Anything, sym).Return(filters(), nil)
	ex.On("LastPrice", mock.Anything, sym).Return(100.0, nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideBuy)).
		Return(models.OrderResult{ExecutedQty: 0.1, QuoteQty: 10, AvgPrice: 100}, nil).Once()
	ex.On("PlaceOCO", mock.Anything, mock.Anything).
		Return(models.OCOResult{}, errors.New("code -2010")).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.ErrorIs(t, err, models.ErrBracketFailed)
	require.ErrorIs(t, err, models.ErrExchangeRequestFailed)

	assert.Equal(t, models.ActionEntered, d.Action)
	assert.Equal(t, models.StateOpen, m.State(sym).State)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("MyTrades", mock.Anything, sym, 50).Return([]models.Trade{
		{Symbol: sym, ID: 1, Price: 100, Qty: 0.1, IsBuyer: true},
	}, nil).Once()

	d, err = m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.NoError(t, err)
	assert.Equal(t, models.ActionSkippedOpen, d.Action)
	ex.AssertNumberOfCalls(t, "PlaceOrder", 1)
}

func TestFailedEntryRevertsToFlat(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	placeErr := fmt.Errorf("%w: http 400 code -2010", models.ErrExchangeRequestFailed)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("ExchangeFilters", mock.Anything, sym).Return(filters(), nil)
	ex.On("LastPrice", mock.Anything, sym).Return(100.0, nil).Once()
	ex.On("PlaceOrder", mock.Anything, isSide(models.SideBuy)).Return(models.OrderResult{}, placeErr).Once()

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.ErrorIs(t, err, models.ErrExchangeRequestFailed)
	assert.Equal(t, models.ActionFailed, d.Action)
	assert.Equal(t, models.StateFlat, m.State(sym).State)
	ex.AssertNotCalled(t, "PlaceOCO", mock.Anything, mock.Anything)
}

func TestQuantityBelowMinimumPlacesNothing(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)
	f := filters()
	f.MinQty = decimal.RequireFromString("0.001")

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("ExchangeFilters", mock.Anything, sym).Return(f, nil)
	ex.On("LastPrice", mock.Anything, sym).Return(50000.0, nil).Once()

	_, err := m.Handle(context.Background(), models.Decision{Symbol: sym}, 10, buySignal)
	require.ErrorIs(t, err, models.ErrQuantityBelowMinimum)
	assert.Equal(t, models.StateFlat, m.State(sym).State)
	ex.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestReconcileAdoptsAndFlattens(t *testing.T) {
	ex := &mockExchange{}
	m := newManager(ex)

	ex.On("OpenOrders", mock.Anything, sym).Return(bracketOrders(), nil).Once()
	state, err := m.Reconcile(context.Background(), sym)
	require.NoError(t, err)
	assert.Equal(t, models.StateOpen, state)

	ex.On("OpenOrders", mock.Anything, sym).Return([]models.Order{}, nil).Once()
	ex.On("MyTrades", mock.Anything, sym, 50).Return([]models.Trade{{Price: 98, Qty: 0.1, IsBuyer: false}}, nil).Once()
	state, err = m.Reconcile(context.Background(), sym)
	require.NoError(t, err)
	assert.Equal(t, models.StateFlat, state)

	last, ok := m.LastDecision(sym)
	require.True(t, ok)
	assert.Equal(t, models.ActionClosedExt, last.Action)
}

func TestNoSignalRecordsDecision(t *testing.T) {
	m := newManager(&mockExchange{})

	d, err := m.Handle(context.Background(), models.Decision{Symbol: sym, Trend: models.TrendSideways}, 10, models.TradeSignal{})
	require.NoError(t, err)
	assert.Equal(t, models.ActionNone, d.Action)
	assert.Len(t, m.Decisions(sym), 1)
	assert.Len(t, m.Snapshot(), 1)
}
