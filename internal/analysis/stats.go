package analysis

import (
	"math"
	"sort"
)

// TukeyFactor scales the IQR when building outlier bounds.
const TukeyFactor = 1.5

// Sorted returns a sorted copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks. It returns NaN for no values.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*w
}

// Median of unsorted values; NaN when empty.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// Bounds is the closed interval outside which a value is an outlier.
type Bounds struct {
	Q1, Q3       float64
	Lower, Upper float64
}

// IQR is Q3 - Q1.
func (b Bounds) IQR() float64 { return b.Q3 - b.Q1 }

// Degenerate reports an IQR that is zero or not finite.
func (b Bounds) Degenerate() bool {
	iqr := b.IQR()
	return iqr == 0 || math.IsNaN(iqr) || math.IsInf(iqr, 0)
}

// Outside reports whether v lies strictly beyond the bounds.
func (b Bounds) Outside(v float64) bool { return v < b.Lower || v > b.Upper }

// Clip moves v onto the nearest bound when it lies outside.
func (b Bounds) Clip(v float64) float64 {
	switch {
	case v < b.Lower:
		return b.Lower
	case v > b.Upper:
		return b.Upper
	}
	return v
}

// TukeyBounds computes [q1 - 1.5*iqr, q3 + 1.5*iqr] from unsorted values.
func TukeyBounds(vals []float64) Bounds {
	s := Sorted(vals)
	q1 := Quantile(s, 0.25)
	q3 := Quantile(s, 0.75)
	iqr := q3 - q1
	return Bounds{
		Q1:    q1,
		Q3:    q3,
		Lower: q1 - TukeyFactor*iqr,
		Upper: q3 + TukeyFactor*iqr,
	}
}

// CountOutliers counts values strictly outside the Tukey bounds. No values,
// or bounds that are not numbers, yield zero.
func CountOutliers(vals []float64) int {
	if len(vals) == 0 {
		return 0
	}
	b := TukeyBounds(vals)
	n := 0
	for _, v := range vals {
		if b.Outside(v) {
			n++
		}
	}
	return n
}
