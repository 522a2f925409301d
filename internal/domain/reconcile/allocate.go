package reconcile

import (
	"math"
	"sort"

	"github.com/okian/rinkcast/internal/domain/numeric"
	"gonum.org/v1/gonum/floats"
)

// MaxTargetSeconds bounds TOI targets so every share stays exactly
// representable as a float64.
const MaxTargetSeconds int64 = 1 << 53

// AllocateSeconds apportions an integer target across estimates with the
// largest-remainder method. Every result is a non-negative integer and the
// results sum to target exactly. Targets above MaxTargetSeconds are clamped
// to it.
//
// Ideal shares are estimate*target/sum, or target/n when every estimate is
// zero. Leftover units go to the largest fractional remainders; equal
// remainders are resolved by input order, earliest first.
func AllocateSeconds(estimates []float64, target int64) []int64 {
	n := len(estimates)
	out := make([]int64, n)
	if n == 0 {
		return out
	}
	target = min(max(target, 0), MaxTargetSeconds)

	t := float64(target)
	clean := cleaned(estimates)
	sum := floats.Sum(clean)
	if math.IsInf(sum, 1) {
		clean, sum = proportions(clean), 1
	}
	ideal := make([]float64, n)
	if sum > 0 {
		for i, e := range clean {
			v := e * t / sum
			if math.IsInf(v, 1) {
				v = e / sum * t
			}
			ideal[i] = math.Min(v, t)
		}
	} else {
		even := t / float64(n)
		for i := range ideal {
			ideal[i] = even
		}
	}

	frac := make([]float64, n)
	var assigned int64
	for i, v := range ideal {
		base := math.Floor(v)
		out[i] = int64(base)
		frac[i] = v - base
		assigned += out[i]
	}

	order := remainderOrder(frac)
	remaining := target - assigned
	// Float rounding can leave the floors off in either direction.
	for k := 0; remaining > 0; k++ {
		out[order[k%n]]++
		remaining--
	}
	for remaining < 0 {
		moved := false
		for k := n - 1; k >= 0 && remaining < 0; k-- {
			if i := order[k]; out[i] > 0 {
				take := min(out[i], -remaining)
				out[i] -= take
				remaining += take
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return out
}

// proportions returns xs/sum(xs), or nil when nothing is positive. When the
// sum overflows, values are taken relative to the largest one first.
func proportions(xs []float64) []float64 {
	sum := floats.Sum(xs)
	if !(sum > 0) {
		return nil
	}
	out := make([]float64, len(xs))
	if math.IsInf(sum, 1) {
		m := floats.Max(xs)
		for i, x := range xs {
			out[i] = x / m
		}
		sum = floats.Sum(out)
		xs = out
	}
	for i, x := range xs {
		out[i] = x / sum
	}
	return out
}

// remainderOrder returns indices by descending fractional remainder, then
// ascending index.
func remainderOrder(frac []float64) []int {
	order := make([]int, len(frac))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		fa, fb := frac[order[a]], frac[order[b]]
		if fa != fb {
			return fa > fb
		}
		return order[a] < order[b]
	})
	return order
}

// ScaleShots rescales real-valued estimates to sum to target.
//
// With a positive estimate sum the estimates are multiplied by target/sum and
// that factor is returned; a sum too large for a float64 is handled relative
// to the largest estimate. When every estimate is zero the target is split in
// proportion to toi (evenly if toi is also all zero) and the returned scale
// is nil.
func ScaleShots(estimates, toi []float64, target float64) ([]float64, *float64) {
	n := len(estimates)
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	target = numeric.NonNegative(target)

	clean := cleaned(estimates)
	if sum := floats.Sum(clean); sum > 0 && !math.IsInf(sum, 1) {
		scale := target / sum
		floats.ScaleTo(out, scale, clean)
		return out, &scale
	}
	if p := proportions(clean); p != nil {
		floats.ScaleTo(out, target, p)
		scale := scaleOf(clean, target)
		return out, &scale
	}

	weights := make([]float64, n)
	if len(toi) == n {
		weights = cleaned(toi)
	}
	if p := proportions(weights); p != nil {
		floats.ScaleTo(out, target, p)
		return out, nil
	}
	for i := range out {
		out[i] = target / float64(n)
	}
	return out, nil
}

// scaleOf is target/sum(xs), with the sum taken relative to the largest
// value so it stays finite.
func scaleOf(xs []float64, target float64) float64 {
	m := floats.Max(xs)
	rel := make([]float64, len(xs))
	for i, x := range xs {
		rel[i] = x / m
	}
	return target / m / floats.Sum(rel)
}

func cleaned(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = numeric.NonNegative(x)
	}
	return out
}
