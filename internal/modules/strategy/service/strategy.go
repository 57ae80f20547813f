package service

import (
	"fmt"

	"mtf_bot/internal/models"
)

// Evaluation is everything one decision cycle derived from the candles.
type Evaluation struct {
	Signal    models.TradeSignal
	Trend     models.Trend
	Trends    map[models.Timeframe]models.Trend
	Snapshots map[models.Timeframe]Snapshot
	Price     float64
}

// Engine turns multi-timeframe candles into a trade signal. It is stateless and safe
// for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Evaluate fails with InsufficientData, IndeterminateTrend or IndeterminateSignal
// instead of defaulting to a signal.
func (e *Engine) Evaluate(series map[models.Timeframe][]models.Candle) (Evaluation, error) {
	snaps, err := e.snapshots(series, e.cfg.RequiredTimeframes())
	if err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{Snapshots: snaps}
	ev.Trend, ev.Trends, err = e.trend(snaps)
	if err != nil {
		return ev, err
	}

	var buy, sell bool
	for _, tf := range e.cfg.SignalTimeframes {
		b, s, err := e.cfg.signalOn(ev.Trend, snaps[tf])
		if err != nil {
			return ev, err
		}
		buy = buy || b
		sell = sell || s
	}
	if ev.Trend == models.TrendSideways || buy && sell {
		buy, sell = false, false
	}

	decision := snaps[e.cfg.DecisionTimeframe]
	if !decision.ATR.OK || !decision.ADX.OK {
		return ev, fmt.Errorf("%w: %s atr/adx undefined", models.ErrIndeterminateSignal, decision.Timeframe)
	}
	ev.Price = decision.Close
	ev.Signal = models.TradeSignal{
		Buy:           buy,
		Sell:          sell,
		TakeProfitPct: TakeProfitPct(decision.ATR.V, decision.ADX.V),
	}
	return ev, nil
}

// Trend runs only the per-timeframe classification and the vote.
func (e *Engine) Trend(series map[models.Timeframe][]models.Candle) (models.Trend, map[models.Timeframe]models.Trend, error) {
	snaps, err := e.snapshots(series, e.cfg.TrendTimeframes)
	if err != nil {
		return "", nil, err
	}
	return e.trend(snaps)
}

func (e *Engine) trend(snaps map[models.Timeframe]Snapshot) (models.Trend, map[models.Timeframe]models.Trend, error) {
	trends := make(map[models.Timeframe]models.Trend, len(e.cfg.TrendTimeframes))
	votes := make([]models.Trend, 0, len(e.cfg.TrendTimeframes))
	for _, tf := range e.cfg.TrendTimeframes {
		t, err := ClassifyTrend(snaps[tf])
		if err != nil {
			return "", trends, err
		}
		trends[tf] = t
		votes = append(votes, t)
	}
	return AggregateTrend(votes, e.cfg.TrendQuorum), trends, nil
}

func (e *Engine) snapshots(series map[models.Timeframe][]models.Candle, tfs []models.Timeframe) (map[models.Timeframe]Snapshot, error) {
	snaps := make(map[models.Timeframe]Snapshot, len(tfs))
	for _, tf := range tfs {
		candles := series[tf]
		if len(candles) < e.cfg.MinLookback {
			return nil, fmt.Errorf("%w: %s has %d candles, need %d",
				models.ErrInsufficientData, tf, len(candles), e.cfg.MinLookback)
		}
		s, err := NewSnapshot(tf, candles, e.cfg)
		if err != nil {
			return nil, err
		}
		snaps[tf] = s
	}
	return snaps, nil
}
