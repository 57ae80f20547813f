package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mtf_bot/internal/models"
	strategy "mtf_bot/internal/modules/strategy/service"
	"mtf_bot/internal/notify"
	"mtf_bot/pkg/logger"
	"mtf_bot/pkg/tracing"
)

// CandleLoader serves candle series, usually through the market cache.
type CandleLoader interface {
	Series(ctx context.Context, symbol string, tfs []models.Timeframe) (map[models.Timeframe][]models.Candle, error)
}

type Evaluator interface {
	Evaluate(series map[models.Timeframe][]models.Candle) (strategy.Evaluation, error)
}

// Positions is the position manager as seen by the scheduler.
type Positions interface {
	Handle(ctx context.Context, d models.Decision, spend float64, sig models.TradeSignal) (models.Decision, error)
	Record(d models.Decision)
	Snapshot() []models.PositionView
	Forget(symbol string)
}

// DecisionLog persists decisions.
type DecisionLog interface {
	Save(ctx context.Context, d models.Decision) error
}

type Recorder interface {
	TickStarted(symbol string)
	TickFinished(symbol string, seconds float64)
	TickSkipped(symbol string)
	Decision(symbol, action string)
	Order(symbol, side string)
	Error(kind string)
	LastPrice(symbol string, price float64)
}

type StatusSink interface {
	TouchTick(t time.Time)
	SetInstruments(n int)
	SetLastError(msg string)
}

type Config struct {
	Interval      time.Duration
	DefaultSpend  float64
	Timeframes    []models.Timeframe
	ErrorCooldown time.Duration
}

// Runner evaluates every registered instrument on a fixed interval. Each instrument
// runs in its own goroutine and a still-running instrument is skipped on the next tick.
type Runner struct {
	cfg       Config
	registry  *Registry
	candles   CandleLoader
	engine    Evaluator
	positions Positions
	notifier  notify.Notifier
	throttle  *notify.Throttle
	log       DecisionLog
	rec       Recorder
	status    StatusSink
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

type Deps struct {
	Registry  *Registry
	Candles   CandleLoader
	Engine    Evaluator
	Positions Positions
	Notifier  notify.Notifier
	Log       DecisionLog
	Recorder  Recorder
	Status    StatusSink
}

func New(cfg Config, d Deps) *Runner {
	if d.Notifier == nil {
		d.Notifier = notify.NewStdout()
	}
	return &Runner{
		cfg:       cfg,
		registry:  d.Registry,
		candles:   d.Candles,
		engine:    d.Engine,
		positions: d.Positions,
		notifier:  d.Notifier,
		throttle:  notify.NewThrottle(cfg.ErrorCooldown),
		log:       d.Log,
		rec:       d.Recorder,
		status:    d.Status,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

func (r *Runner) Registry() *Registry { return r.registry }

// Run ticks until ctx is done, then waits for running instruments.
func (r *Runner) Run(ctx context.Context) {
	logger.Info("[RUNNER] start, interval=%s instruments=%d", r.cfg.Interval, r.registry.Len())
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()

	r.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			logger.Info("[RUNNER] stopped")
			return
		case <-t.C:
			r.Tick(ctx)
		}
	}
}

// Tick launches one evaluation per registered instrument that is not already running.
func (r *Runner) Tick(ctx context.Context) {
	list := r.registry.List()
	if r.status != nil {
		r.status.TouchTick(r.now())
		r.status.SetInstruments(len(list))
	}
	r.prune()
	for _, ins := range list {
		if ctx.Err() != nil {
			return
		}
		if !r.acquire(ins.Symbol) {
			logger.Debug("[RUNNER] %s still running, skipped", ins.Symbol)
			if r.rec != nil {
				r.rec.TickSkipped(ins.Symbol)
			}
			continue
		}
		r.wg.Add(1)
		go func(ins Instrument) {
			defer r.wg.Done()
			defer r.release(ins.Symbol)
			r.runInstrument(ctx, ins)
		}(ins)
	}
}

// Wait blocks until every launched instrument finished.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) acquire(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[symbol]; busy {
		return false
	}
	r.inFlight[symbol] = struct{}{}
	return true
}

// prune drops the Flat state of instruments removed from the registry. A running
// instrument is left for a later tick.
func (r *Runner) prune() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.positions.Snapshot() {
		if _, ok := r.registry.Get(v.Symbol); ok || v.State != models.StateFlat {
			continue
		}
		if _, busy := r.inFlight[v.Symbol]; busy {
			continue
		}
		r.positions.Forget(v.Symbol)
	}
}

func (r *Runner) release(symbol string) {
	r.mu.Lock()
	delete(r.inFlight, symbol)
	r.mu.Unlock()
}

func (r *Runner) runInstrument(ctx context.Context, ins Instrument) {
	start := r.now()
	if r.rec != nil {
		r.rec.TickStarted(ins.Symbol)
		defer func() { r.rec.TickFinished(ins.Symbol, time.Since(start).Seconds()) }()
	}

	span, ctx := tracing.StartSpan(ctx, "instrument.cycle", map[string]interface{}{"symbol": ins.Symbol})
	var err error
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			logger.Error("[RUNNER] %s panic: %v", ins.Symbol, p)
			r.report(ins.Symbol, err)
		}
		tracing.Finish(span, err)
	}()

	err = r.process(ctx, ins)
	if err != nil {
		r.report(ins.Symbol, err)
	}
}

// process runs fetch, evaluate and execute for one instrument.
func (r *Runner) process(ctx context.Context, ins Instrument) error {
	base := models.Decision{Symbol: ins.Symbol, At: r.now()}

	fetchSpan, fetchCtx := tracing.StartSpan(ctx, "instrument.fetch", nil)
	series, err := r.candles.Series(fetchCtx, ins.Symbol, r.cfg.Timeframes)
	tracing.Finish(fetchSpan, err)
	if err != nil {
		return err
	}

	evalSpan, _ := tracing.StartSpan(ctx, "instrument.evaluate", nil)
	ev, err := r.engine.Evaluate(series)
	tracing.Finish(evalSpan, err)
	base.Trend, base.Trends, base.Price = ev.Trend, ev.Trends, ev.Price
	if err != nil {
		if models.Skippable(err) {
			base.Action = models.ActionIndeterminate
			if errors.Is(err, models.ErrInsufficientData) {
				base.Action = models.ActionInsufficient
			}
			base.Detail = err.Error()
			r.positions.Record(base)
			r.persist(ctx, base)
			logger.Info("[RUNNER] %s skipped: %v", ins.Symbol, err)
			return nil
		}
		return err
	}
	if r.rec != nil {
		r.rec.LastPrice(ins.Symbol, ev.Price)
	}

	spend := ins.Spend
	if spend <= 0 {
		spend = r.cfg.DefaultSpend
	}

	// order placement must survive shutdown once started
	execCtx := context.WithoutCancel(ctx)
	execSpan, execCtx := tracing.StartSpan(execCtx, "instrument.execute", map[string]interface{}{"side": string(ev.Signal.Side())})
	d, err := r.positions.Handle(execCtx, base, spend, ev.Signal)
	tracing.Finish(execSpan, err)

	r.persist(execCtx, d)
	if r.rec != nil {
		r.rec.Decision(ins.Symbol, string(d.Action))
	}
	r.announce(d)

	if d.Action == models.ActionNone {
		logger.Debug("[RUNNER] %s trend=%s no signal", ins.Symbol, d.Trend)
	} else {
		logger.Info("[RUNNER] %s trend=%s side=%s tp=%.2f action=%s %s",
			ins.Symbol, d.Trend, d.Side, d.TakeProfitPct, d.Action, d.Detail)
	}
	return err
}

func (r *Runner) persist(ctx context.Context, d models.Decision) {
	if r.log == nil {
		return
	}
	if err := r.log.Save(ctx, d); err != nil {
		logger.Warn("[RUNNER] %s decision log: %v", d.Symbol, err)
	}
}

// announce notifies about placed orders and about cycles that did not trade on a
// signal. The latter are throttled per symbol and action.
func (r *Runner) announce(d models.Decision) {
	switch d.Action {
	case models.ActionEntered:
		if r.rec != nil {
			r.rec.Order(d.Symbol, string(models.SideBuy))
		}
		r.notifier.Sendf("🟢 %s BUY @ %v (tp %.2f%%)\n%s", d.Symbol, d.Price, d.TakeProfitPct, d.Detail)
	case models.ActionExited:
		if r.rec != nil {
			r.rec.Order(d.Symbol, string(models.SideSell))
		}
		r.notifier.Sendf("🔴 %s SELL\n%s", d.Symbol, d.Detail)
	case models.ActionClosedExt:
		r.notifier.Sendf("ℹ️ %s position closed by bracket\n%s", d.Symbol, d.Detail)
	case models.ActionSkippedOpen:
		r.notifyOnce(d, "⏸ %s BUY skipped, position open\n%s")
	case models.ActionSuppressed:
		r.notifyOnce(d, "⏸ %s BUY suppressed\n%s")
	case models.ActionReconciled:
		r.notifyOnce(d, "🔄 %s reconciled with exchange\n%s")
	case models.ActionExitDeferred:
		r.notifyOnce(d, "⏳ %s SELL deferred\n%s")
	}
}

func (r *Runner) notifyOnce(d models.Decision, format string) {
	if r.throttle.Allow(d.Symbol + ":" + string(d.Action)) {
		r.notifier.Sendf(format, d.Symbol, d.Detail)
	}
}

// report logs the error and notifies once per symbol and kind per cooldown.
func (r *Runner) report(symbol string, err error) {
	kind := models.ErrorKind(err)
	logger.Error("[RUNNER] %s %s: %v", symbol, kind, err)
	if r.rec != nil {
		r.rec.Error(kind)
	}
	if r.status != nil {
		r.status.SetLastError(symbol + ": " + err.Error())
	}
	if r.throttle.Allow(symbol + ":" + kind) {
		r.notifier.Sendf("⚠️ %s: %v", symbol, err)
	}
}
