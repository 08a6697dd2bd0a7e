package metrics

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 when there are none.
// Callers treat 0 as "no data" where that matters.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PopulationStdDev returns sqrt(mean((x-mu)^2)). Empty and single-element
// inputs have no spread and return 0.
func PopulationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

// Clamp saturates x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Round2 rounds to two decimal places, the precision every published score
// carries. Rounding works on the exact binary value of x, so 0.725 (stored just
// below the tie) becomes 0.72. Exact ties round half away from zero.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	// Multiples of 1/8 are the only exactly representable ties; x*100 is exact for them.
	if eighths := x * 8; eighths == math.Trunc(eighths) {
		return math.Round(x*100) / 100
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return math.Round(x*100) / 100
	}
	return r
}

// blend3 returns a*wa + b*wb + c*wc with every product rounded on its own,
// so the result does not depend on fused multiply-add.
func blend3(a, wa, b, wb, c, wc float64) float64 {
	return float64(a*wa) + float64(b*wb) + float64(c*wc)
}

// saturatedRatio is 1 - min(value/threshold, 1): 1 for no spread, 0 at or past threshold.
func saturatedRatio(value, threshold float64) float64 {
	return 1 - math.Min(value/threshold, 1)
}

// linearPenalty is max(0, 1 - value*factor).
func linearPenalty(value, factor float64) float64 {
	return math.Max(0, 1-value*factor)
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
