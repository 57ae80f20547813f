package indicators

type IchimokuConfig struct {
	Tenkan       int
	Kijun        int
	SenkouB      int
	Displacement int
}

var DefaultIchimoku = IchimokuConfig{Tenkan: 9, Kijun: 26, SenkouB: 52, Displacement: 26}

// IchimokuResult lines are aligned with the input candles: the cloud spans at index i
// were computed Displacement candles earlier, chikou at i is the close Displacement
// candles later.
type IchimokuResult struct {
	Tenkan  Series
	Kijun   Series
	SenkouA Series
	SenkouB Series
	Chikou  Series
}

func Ichimoku(highs, lows, closes []float64, cfg IchimokuConfig) IchimokuResult {
	n := minLen(highs, lows, closes)
	res := IchimokuResult{
		Tenkan:  midpoint(highs[:n], lows[:n], cfg.Tenkan),
		Kijun:   midpoint(highs[:n], lows[:n], cfg.Kijun),
		SenkouA: make(Series, n),
		SenkouB: make(Series, n),
		Chikou:  make(Series, n),
	}
	midB := midpoint(highs[:n], lows[:n], cfg.SenkouB)
	d := cfg.Displacement

	for i := 0; i < n; i++ {
		if j := i - d; j >= 0 {
			if res.Tenkan[j].OK && res.Kijun[j].OK {
				res.SenkouA[i] = Some((res.Tenkan[j].V + res.Kijun[j].V) / 2)
			}
			res.SenkouB[i] = midB[j]
		}
		if j := i + d; j < n {
			res.Chikou[i] = Some(closes[j])
		}
	}
	return res
}

// midpoint is (highest high + lowest low) / 2 over the trailing window.
func midpoint(highs, lows []float64, period int) Series {
	n := minLen(highs, lows)
	out := make(Series, n)
	if period <= 0 || n < period {
		return out
	}
	for i := period - 1; i < n; i++ {
		hi, _ := Highest(highs[:i+1], period)
		lo, _ := Lowest(lows[:i+1], period)
		out[i] = Some((hi + lo) / 2)
	}
	return out
}
