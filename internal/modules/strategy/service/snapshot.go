package service

import (
	"fmt"

	"mtf_bot/internal/indicators"
	"mtf_bot/internal/models"
)

// Snapshot is the latest reading of every indicator on one timeframe.
type Snapshot struct {
	Timeframe models.Timeframe
	Close     float64
	Volume    float64

	RSI       indicators.Value
	EMAFast   indicators.Value
	EMASlow   indicators.Value
	ATR       indicators.Value
	ADX       indicators.Value
	AvgVolume indicators.Value

	BBUpper  indicators.Value
	BBMiddle indicators.Value
	BBLower  indicators.Value

	MACD       indicators.Value
	MACDSignal indicators.Value
	MACDHist   indicators.Value

	OBV     indicators.Value
	PrevOBV indicators.Value

	Tenkan  indicators.Value
	Kijun   indicators.Value
	SenkouA indicators.Value
	SenkouB indicators.Value

	// nil until FibWindow candles are available
	Fibonacci []float64
}

func NewSnapshot(tf models.Timeframe, candles []models.Candle, cfg Config) (Snapshot, error) {
	if len(candles) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no %s candles", models.ErrInsufficientData, tf)
	}

	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)
	volumes := models.Volumes(candles)
	last := candles[len(candles)-1]

	bb := indicators.Bollinger(closes, cfg.BBPeriod, cfg.BBK)
	macd := indicators.MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	obv := indicators.OBV(closes, volumes)
	ich := indicators.Ichimoku(highs, lows, closes, indicators.DefaultIchimoku)

	s := Snapshot{
		Timeframe: tf,
		Close:     last.Close,
		Volume:    last.Volume,

		RSI:       indicators.RSI(closes, cfg.RSIPeriod).Last(),
		EMAFast:   indicators.EMA(closes, cfg.EMAFast).Last(),
		EMASlow:   indicators.EMA(closes, cfg.EMASlow).Last(),
		ATR:       indicators.ATR(highs, lows, closes, cfg.ATRPeriod).Last(),
		ADX:       indicators.ADX(highs, lows, closes, cfg.ADXPeriod).ADX.Last(),
		AvgVolume: indicators.SMA(volumes, cfg.VolumePeriod).Last(),

		BBUpper:  bb.Upper.Last(),
		BBMiddle: bb.Middle.Last(),
		BBLower:  bb.Lower.Last(),

		MACD:       macd.MACD.Last(),
		MACDSignal: macd.Signal.Last(),
		MACDHist:   macd.Histogram.Last(),

		OBV:     obv.Last(),
		PrevOBV: obv.Prev(),

		Tenkan:  ich.Tenkan.Last(),
		Kijun:   ich.Kijun.Last(),
		SenkouA: ich.SenkouA.Last(),
		SenkouB: ich.SenkouB.Last(),
	}

	hi, okHi := indicators.Highest(highs, cfg.FibWindow)
	lo, okLo := indicators.Lowest(lows, cfg.FibWindow)
	if okHi && okLo {
		s.Fibonacci = indicators.Fibonacci(hi, lo)
	}
	return s, nil
}
