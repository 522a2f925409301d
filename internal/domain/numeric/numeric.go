// Package numeric holds the small numeric primitives shared by the projection
// engine: clamping, exponential decay and the goalie finishing multiplier.
package numeric

import "math"

// Goalie finishing adjustment constants.
const (
	goalieSvSpread  = 0.07
	goalieMultFloor = 0.80
	goalieMultCap   = 1.20
)

// IsFinite reports whether x is neither NaN nor an infinity.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// NonNegative maps NaN, infinities and negative values to 0.
func NonNegative(x float64) float64 {
	if !IsFinite(x) || x < 0 {
		return 0
	}
	return x
}

// Clip clamps x into [min(lo,hi), max(lo,hi)].
//
// A non-finite x resolves to lo when lo is finite, otherwise to hi. When
// neither bound is finite x is returned unchanged.
func Clip(x, lo, hi float64) float64 {
	loOK, hiOK := IsFinite(lo), IsFinite(hi)
	if !loOK && !hiOK {
		return x
	}
	if !IsFinite(x) {
		if loOK {
			return lo
		}
		return hi
	}
	// A NaN bound leaves that side open.
	if math.IsNaN(lo) {
		lo = math.Inf(-1)
	}
	if math.IsNaN(hi) {
		hi = math.Inf(1)
	}
	return math.Max(math.Min(lo, hi), math.Min(x, math.Max(lo, hi)))
}

// DecayWeight returns exp(-max(daysAgo,0)/tau) where tau falls back to 1 when
// tauDays is not positive.
func DecayWeight(daysAgo, tauDays float64) float64 {
	tau := tauDays
	if !(tau > 0) {
		tau = 1
	}
	if !(daysAgo > 0) {
		daysAgo = 0
	}
	return math.Exp(-daysAgo / tau)
}

// GoalieFinishMult scales shooter finishing by the opposing goalie's projected
// save percentage relative to league average. A goalie above average lowers
// the multiplier; the result is bounded to [0.80, 1.20].
func GoalieFinishMult(svProj, leagueSv float64) float64 {
	if !IsFinite(svProj) || !IsFinite(leagueSv) {
		return 1
	}
	return Clip(1-(svProj-leagueSv)/goalieSvSpread, goalieMultFloor, goalieMultCap)
}
