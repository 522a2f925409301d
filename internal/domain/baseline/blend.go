package baseline

import (
	"github.com/okian/rinkcast/internal/domain/numeric"
	"gonum.org/v1/gonum/floats"
)

// DefaultWindow is the number of seasons in the 3-year blend.
const DefaultWindow = 3

// DefaultWeights weights the three most recent seasons.
var DefaultWeights = []float64{0.6, 0.3, 0.1}

// BlendResult holds blended totals and their ratio.
type BlendResult struct {
	Numer float64 `json:"numer"`
	Denom float64 `json:"denom"`
	Rate  float64 `json:"rate"`
}

// ComputeBlendFromSeasons blends up to the three most recent seasons with
// DefaultWeights. seasons must already be sorted most recent first.
//
// When fewer than three seasons exist the leading weights are renormalized to
// sum to 1, so two seasons blend as 2/3 and 1/3. Returns nil when no seasons
// are given or the blended denominator is not positive.
func ComputeBlendFromSeasons(seasons []SeasonTotals, numer, denom Field) *BlendResult {
	return BlendWithWeights(seasons, DefaultWeights, numer, denom)
}

// BlendWithWeights applies weights[i] to seasons[i] for the overlapping
// prefix, renormalizing that prefix to sum to 1. Negative or non-finite
// weights count as 0.
func BlendWithWeights(seasons []SeasonTotals, weights []float64, numer, denom Field) *BlendResult {
	n := min(len(seasons), len(weights))
	if n == 0 {
		return nil
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = numeric.NonNegative(weights[i])
	}
	total := floats.Sum(w)
	if !(total > 0) {
		return nil
	}
	floats.Scale(1/total, w)

	nums := make([]float64, n)
	dens := make([]float64, n)
	for i := 0; i < n; i++ {
		nums[i] = numer.value(seasons[i])
		dens[i] = denom.value(seasons[i])
	}
	bn := floats.Dot(w, nums)
	bd := floats.Dot(w, dens)
	if !(bd > 0) {
		return nil
	}
	rate := bn / bd
	if !numeric.IsFinite(rate) {
		return nil
	}
	return &BlendResult{Numer: bn, Denom: bd, Rate: rate}
}

// CareerWeights weights every season by its share of career games played.
// When no season has games played the weights are flat.
func CareerWeights(seasons []SeasonTotals) []float64 {
	w := make([]float64, len(seasons))
	for i, s := range seasons {
		w[i] = FieldGamesPlayed.value(s)
	}
	total := floats.Sum(w)
	if total > 0 {
		floats.Scale(1/total, w)
		return w
	}
	for i := range w {
		w[i] = 1 / float64(len(w))
	}
	return w
}
