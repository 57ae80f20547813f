package indicators

// OBV accumulates volume signed by the close-to-close direction, starting at 0.
func OBV(closes, volumes []float64) Series {
	n := minLen(closes, volumes)
	out := make(Series, n)
	if n == 0 {
		return out
	}
	obv := 0.0
	out[0] = Some(obv)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
		out[i] = Some(obv)
	}
	return out
}
