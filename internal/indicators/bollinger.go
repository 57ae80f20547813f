package indicators

import "math"

type BandsResult struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger bands use the population standard deviation of the SMA window.
func Bollinger(closes []float64, period int, k float64) BandsResult {
	n := len(closes)
	res := BandsResult{
		Upper:  make(Series, n),
		Middle: SMA(closes, period),
		Lower:  make(Series, n),
	}
	for i, m := range res.Middle {
		if !m.OK {
			continue
		}
		variance := 0.0
		for _, v := range closes[i-period+1 : i+1] {
			d := v - m.V
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		res.Upper[i] = Some(m.V + k*sd)
		res.Lower[i] = Some(m.V - k*sd)
	}
	return res
}
