package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtf_bot/internal/models"
	strategy "mtf_bot/internal/modules/strategy/service"
)

type blockingLoader struct {
	release chan struct{}
	calls   chan string
	after   func()
}

func (l *blockingLoader) Series(ctx context.Context, symbol string, tfs []models.Timeframe) (map[models.Timeframe][]models.Candle, error) {
	if l.calls != nil {
		l.calls <- symbol
	}
	if l.release != nil {
		<-l.release
	}
	if l.after != nil {
		l.after()
	}
	return map[models.Timeframe][]models.Candle{}, nil
}

type stubEngine struct {
	ev    strategy.Evaluation
	err   error
	panic bool
}

func (s stubEngine) Evaluate(map[models.Timeframe][]models.Candle) (strategy.Evaluation, error) {
	if s.panic {
		panic("boom")
	}
	return s.ev, s.err
}

type stubPositions struct {
	mu        sync.Mutex
	handled   []models.Decision
	recorded  []models.Decision
	ctxErr    error
	result    models.Action
	err       error
	views     []models.PositionView
	forgotten []string
}

func (p *stubPositions) Handle(ctx context.Context, d models.Decision, _ float64, _ models.TradeSignal) (models.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctxErr = ctx.Err()
	d.Action = p.result
	if d.Action == "" {
		d.Action = models.ActionNone
	}
	p.handled = append(p.handled, d)
	return d, p.err
}

func (p *stubPositions) Record(d models.Decision) {
	p.mu.Lock()
	p.recorded = append(p.recorded, d)
	p.mu.Unlock()
}

func (p *stubPositions) Snapshot() []models.PositionView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.PositionView(nil), p.views...)
}

func (p *stubPositions) Forget(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forgotten = append(p.forgotten, symbol)
	for i, v := range p.views {
		if v.Symbol == symbol {
			p.views = append(p.views[:i], p.views[i+1:]...)
			break
		}
	}
}

type stubRecorder struct {
	mu      sync.Mutex
	skipped int
	errors  []string
}

func (s *stubRecorder) TickStarted(string)           {}
func (s *stubRecorder) TickFinished(string, float64) {}
func (s *stubRecorder) Decision(string, string)      {}
func (s *stubRecorder) Order(string, string)         {}
func (s *stubRecorder) LastPrice(string, float64)    {}

func (s *stubRecorder) TickSkipped(string) {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

func (s *stubRecorder) Error(kind string) {
	s.mu.Lock()
	s.errors = append(s.errors, kind)
	s.mu.Unlock()
}

type memNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *memNotifier) Send(msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *memNotifier) Sendf(format string, args ...any) { n.Send(format) }

func newRunner(loader CandleLoader, engine Evaluator, pos Positions, rec *stubRecorder, n *memNotifier) *Runner {
	reg := NewRegistry()
	reg.Add("BTCUSDT", 0)
	return New(Config{Interval: time.Hour, DefaultSpend: 10, Timeframes: models.Timeframes, ErrorCooldown: time.Hour}, Deps{
		Registry:  reg,
		Candles:   loader,
		Engine:    engine,
		Positions: pos,
		Notifier:  n,
		Recorder:  rec,
	})
}

func TestTickSkipsInstrumentStillRunning(t *testing.T) {
	loader := &blockingLoader{release: make(chan struct{}), calls: make(chan string, 4)}
	rec := &stubRecorder{}
	pos := &stubPositions{}
	r := newRunner(loader, stubEngine{ev: strategy.Evaluation{Trend: models.TrendUp}}, pos, rec, &memNotifier{})
	ctx := context.Background()

	r.Tick(ctx)
	<-loader.calls
	r.Tick(ctx)

	close(loader.release)
	r.Wait()

	assert.Equal(t, 1, rec.skipped)
	assert.Len(t, pos.handled, 1)

	r.Tick(ctx)
	r.Wait()
	assert.Len(t, pos.handled, 2)
}

func TestPanicIsContainedToInstrument(t *testing.T) {
	rec := &stubRecorder{}
	n := &memNotifier{}
	r := newRunner(&blockingLoader{}, stubEngine{panic: true}, &stubPositions{}, rec, n)

	require.NotPanics(t, func() {
		r.Tick(context.Background())
		r.Wait()
	})
	assert.Equal(t, []string{"internal"}, rec.errors)
	assert.Len(t, n.msgs, 1)

	r.Tick(context.Background())
	r.Wait()
	assert.Len(t, n.msgs, 1, "repeated error notification is throttled")
}

func TestSkippableErrorIsRecordedNotReported(t *testing.T) {
	rec := &stubRecorder{}
	pos := &stubPositions{}
	engine := stubEngine{err: models.ErrInsufficientData}
	r := newRunner(&blockingLoader{}, engine, pos, rec, &memNotifier{})

	r.Tick(context.Background())
	r.Wait()

	require.Len(t, pos.recorded, 1)
	assert.Equal(t, models.ActionInsufficient, pos.recorded[0].Action)
	assert.Empty(t, pos.handled)
	assert.Empty(t, rec.errors)
}

func TestExecutionIgnoresShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader := &blockingLoader{after: cancel}
	pos := &stubPositions{}
	r := newRunner(loader, stubEngine{ev: strategy.Evaluation{Signal: models.TradeSignal{Buy: true}}}, pos, &stubRecorder{}, &memNotifier{})

	r.Tick(ctx)
	r.Wait()

	require.Len(t, pos.handled, 1)
	assert.NoError(t, pos.ctxErr)
}

func TestExchangeErrorIsReported(t *testing.T) {
	rec := &stubRecorder{}
	n := &memNotifier{}
	pos := &stubPositions{result: models.ActionFailed, err: errors.Join(models.ErrExchangeRequestFailed)}
	r := newRunner(&blockingLoader{}, stubEngine{ev: strategy.Evaluation{Signal: models.TradeSignal{Buy: true}}}, pos, rec, n)

	r.Tick(context.Background())
	r.Wait()

	assert.Equal(t, []string{"exchange_request_failed"}, rec.errors)
	assert.Len(t, n.msgs, 1)
}

func TestEnteredIsAnnounced(t *testing.T) {
	n := &memNotifier{}
	pos := &stubPositions{result: models.ActionEntered}
	r := newRunner(&blockingLoader{}, stubEngine{ev: strategy.Evaluation{Signal: models.TradeSignal{Buy: true}}}, pos, &stubRecorder{}, n)

	r.Tick(context.Background())
	r.Wait()

	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "BUY")
}

func TestNonTradingOutcomesAreAnnouncedOnce(t *testing.T) {
	cases := map[models.Action]string{
		models.ActionSkippedOpen:  "skipped",
		models.ActionSuppressed:   "suppressed",
		models.ActionReconciled:   "reconciled",
		models.ActionExitDeferred: "deferred",
	}
	for action, text := range cases {
		t.Run(string(action), func(t *testing.T) {
			n := &memNotifier{}
			pos := &stubPositions{result: action}
			r := newRunner(&blockingLoader{}, stubEngine{ev: strategy.Evaluation{Signal: models.TradeSignal{Buy: true}}}, pos, &stubRecorder{}, n)

			r.Tick(context.Background())
			r.Wait()
			require.Len(t, n.msgs, 1)
			assert.Contains(t, n.msgs[0], text)

			r.Tick(context.Background())
			r.Wait()
			assert.Len(t, n.msgs, 1, "repeated outcome is throttled")
		})
	}
}

func TestNoSignalIsNotAnnounced(t *testing.T) {
	n := &memNotifier{}
	r := newRunner(&blockingLoader{}, stubEngine{}, &stubPositions{}, &stubRecorder{}, n)

	r.Tick(context.Background())
	r.Wait()
	assert.Empty(t, n.msgs)
}

func TestTickForgetsRemovedFlatInstruments(t *testing.T) {
	pos := &stubPositions{views: []models.PositionView{
		{Symbol: "BTCUSDT", State: models.StateFlat},
		{Symbol: "ETHUSDT", State: models.StateFlat},
		{Symbol: "SOLUSDT", State: models.StateOpen, HasOpenPosition: true},
		{Symbol: "XRPUSDT", State: models.StateFlat},
	}}
	r := newRunner(&blockingLoader{}, stubEngine{}, pos, &stubRecorder{}, &memNotifier{})
	r.inFlight["XRPUSDT"] = struct{}{}

	r.Tick(context.Background())
	r.Wait()
	assert.Equal(t, []string{"ETHUSDT"}, pos.forgotten)

	r.release("XRPUSDT")
	r.Tick(context.Background())
	r.Wait()
	assert.Equal(t, []string{"ETHUSDT", "XRPUSDT"}, pos.forgotten)
}

type stubPrices map[string]float64

func (s stubPrices) Get(symbol string, _ time.Duration) (float64, bool) {
	px, ok := s[symbol]
	return px, ok
}

func TestExchangePrefersStreamedPrice(t *testing.T) {
	e := NewExchange(nil, stubPrices{"BTCUSDT": 101}, time.Second)
	px, err := e.LastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 101.0, px)
}
