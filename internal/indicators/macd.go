package indicators

type MACDResult struct {
	MACD      Series
	Signal    Series
	Histogram Series
}

// MACD is EMA(fast) - EMA(slow) with an EMA signal line over the defined MACD values.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	n := len(closes)
	res := MACDResult{
		MACD:      make(Series, n),
		Histogram: make(Series, n),
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	for i := 0; i < n; i++ {
		if fastEMA[i].OK && slowEMA[i].OK {
			res.MACD[i] = Some(fastEMA[i].V - slowEMA[i].V)
		}
	}

	res.Signal = emaSeries(res.MACD, signal)
	for i := 0; i < n; i++ {
		if res.MACD[i].OK && res.Signal[i].OK {
			res.Histogram[i] = Some(res.MACD[i].V - res.Signal[i].V)
		}
	}
	return res
}
