package indicators

import "math"

type ADXResult struct {
	ADX     Series
	PlusDI  Series
	MinusDI Series
}

// ADX smooths +DM, -DM and true range with Wilder sums, derives DI+/DI- and DX,
// then averages DX. DI is defined from index period, ADX from index 2*period-1.
func ADX(highs, lows, closes []float64, period int) ADXResult {
	n := minLen(highs, lows, closes)
	res := ADXResult{
		ADX:     make(Series, n),
		PlusDI:  make(Series, n),
		MinusDI: make(Series, n),
	}
	if period <= 0 || n < 2*period {
		return res
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	p := float64(period)
	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if i > period {
			smTR = smTR - smTR/p + tr[i]
			smPlus = smPlus - smPlus/p + plusDM[i]
			smMinus = smMinus - smMinus/p + minusDM[i]
		}
		pdi, mdi := 0.0, 0.0
		if smTR > 0 {
			pdi = 100 * smPlus / smTR
			mdi = 100 * smMinus / smTR
		}
		res.PlusDI[i] = Some(pdi)
		res.MinusDI[i] = Some(mdi)
		if s := pdi + mdi; s > 0 {
			dx[i] = 100 * math.Abs(pdi-mdi) / s
		}
	}

	first := 2*period - 1
	adx := 0.0
	for i := period; i <= first; i++ {
		adx += dx[i]
	}
	adx /= p
	res.ADX[first] = Some(adx)
	for i := first + 1; i < n; i++ {
		adx = (adx*(p-1) + dx[i]) / p
		res.ADX[i] = Some(adx)
	}
	return res
}
