package indicators

// FibonacciRatios are the retracement ratios measured down from the high.
var FibonacciRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786}

// Fibonacci returns high - r*(high-low) for every ratio.
func Fibonacci(high, low float64) []float64 {
	diff := high - low
	out := make([]float64, len(FibonacciRatios))
	for i, r := range FibonacciRatios {
		out[i] = high - r*diff
	}
	return out
}

// Highest is the maximum of the last window values.
func Highest(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	tail := values[len(values)-window:]
	hi := tail[0]
	for _, v := range tail[1:] {
		if v > hi {
			hi = v
		}
	}
	return hi, true
}

func Lowest(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	tail := values[len(values)-window:]
	lo := tail[0]
	for _, v := range tail[1:] {
		if v < lo {
			lo = v
		}
	}
	return lo, true
}
