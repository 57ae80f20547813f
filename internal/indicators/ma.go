package indicators

// SMA is the simple moving average; defined from index period-1.
func SMA(values []float64, period int) Series {
	out := make(Series, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out[i] = Some(sum / float64(period))
	}
	return out
}

// EMA seeds with the SMA of the first period samples, then applies k = 2/(period+1).
func EMA(values []float64, period int) Series {
	return emaSeries(FromFloats(values), period)
}

// emaSeries runs the EMA over a partially defined input, seeding at the first
// run of period consecutive defined values.
func emaSeries(in Series, period int) Series {
	out := make(Series, len(in))
	if period <= 0 || len(in) < period {
		return out
	}

	start, run := -1, 0
	for i, v := range in {
		if v.OK {
			run++
		} else {
			run = 0
		}
		if run == period {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}

	seed := 0.0
	for _, v := range in[start-period+1 : start+1] {
		seed += v.V
	}
	prev := seed / float64(period)
	out[start] = Some(prev)

	k := 2 / float64(period+1)
	for i := start + 1; i < len(in); i++ {
		if !in[i].OK {
			continue
		}
		prev = in[i].V*k + prev*(1-k)
		out[i] = Some(prev)
	}
	return out
}
