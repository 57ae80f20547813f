package indicators

import "math"

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

func minLen(xs ...[]float64) int {
	n := -1
	for _, x := range xs {
		if n < 0 || len(x) < n {
			n = len(x)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// ATR applies Wilder smoothing to the true range. The first value sits at index period.
func ATR(highs, lows, closes []float64, period int) Series {
	n := minLen(highs, lows, closes)
	out := make(Series, n)
	if period <= 0 || n <= period {
		return out
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	p := float64(period)
	atr := sum / p
	out[period] = Some(atr)

	for i := period + 1; i < n; i++ {
		atr = (atr*(p-1) + trueRange(highs[i], lows[i], closes[i-1])) / p
		out[i] = Some(atr)
	}
	return out
}
