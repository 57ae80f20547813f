package service

import (
	"fmt"
	"math"

	"mtf_bot/internal/indicators"
	"mtf_bot/internal/models"
)

// RSIBounds widens the overbought/oversold band with relative volatility.
func (c Config) RSIBounds(atr, price float64) (overbought, oversold float64) {
	ratio := 0.0
	if price > 0 {
		ratio = atr / price
	}
	return c.RSIOverbought + ratio*c.VolatilityFactor, c.RSIOversold - ratio*c.VolatilityFactor
}

// TakeProfitPct is the adaptive take-profit: base 3, moved by ATR and ADX, clamped to [1, 10].
func TakeProfitPct(atr, adx float64) float64 {
	tp := 3.0
	if atr > 1 {
		tp += atr * 0.5
	} else {
		tp -= atr * 0.5
	}
	switch {
	case adx > 30:
		tp++
	case adx < 20:
		tp--
	}
	return math.Max(1, math.Min(tp, 10))
}

// signalOn evaluates the buy/sell rules on one timeframe under the aggregate trend.
func (c Config) signalOn(trend models.Trend, s Snapshot) (buy, sell bool, err error) {
	required := []struct {
		name string
		v    indicators.Value
	}{
		{"rsi", s.RSI},
		{"atr", s.ATR},
		{"adx", s.ADX},
		{"avg volume", s.AvgVolume},
		{"bb upper", s.BBUpper},
		{"ema fast", s.EMAFast},
		{"obv", s.OBV},
		{"prev obv", s.PrevOBV},
	}
	for _, r := range required {
		if !r.v.OK {
			return false, false, fmt.Errorf("%w: %s %s undefined", models.ErrIndeterminateSignal, s.Timeframe, r.name)
		}
	}
	if s.Fibonacci == nil {
		return false, false, fmt.Errorf("%w: %s fibonacci undefined", models.ErrIndeterminateSignal, s.Timeframe)
	}

	overbought, oversold := c.RSIBounds(s.ATR.V, s.Close)

	switch trend {
	case models.TrendUp:
		buy = s.RSI.V < oversold+c.OversoldMargin &&
			s.Volume > s.AvgVolume.V*c.VolumeMultiplier &&
			s.ADX.V > c.BuyADXFloor &&
			s.OBV.V > s.PrevOBV.V &&
			nearLevel(s.Close, s.Fibonacci, c.FibSupportTolerance, true) &&
			s.Close > s.EMAFast.V
	case models.TrendDown:
		sell = s.RSI.V > overbought &&
			s.Close >= s.BBUpper.V*(1-c.BBTolerance) &&
			s.ADX.V > c.SellADXFloor &&
			s.OBV.V < s.PrevOBV.V &&
			nearLevel(s.Close, s.Fibonacci, c.FibResistanceTolerance, false)
	}
	return buy, sell, nil
}

// nearLevel reports a close within tol of a level, below it for support and above it
// for resistance.
func nearLevel(close float64, levels []float64, tol float64, below bool) bool {
	for _, l := range levels {
		if l <= 0 {
			continue
		}
		if math.Abs(close-l)/l >= tol {
			continue
		}
		if below && close < l || !below && close > l {
			return true
		}
	}
	return false
}
