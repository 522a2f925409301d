// Package decay blends time-decayed observations into a weighted mean and
// tracks the effective sample size used for shrinkage toward a prior.
package decay

import (
	"github.com/okian/rinkcast/internal/domain/numeric"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample is one historical observation contributing to a decayed estimate.
type Sample struct {
	Value   *float64 `json:"value"`            // nil samples are skipped, not treated as zero
	DaysAgo float64  `json:"days_ago"`         // negative ages are clamped to 0
	Weight  *float64 `json:"weight,omitempty"` // nil means 1
}

// Result is the outcome of a decay blend. Mean is nil iff no sample
// contributed positive weight.
type Result struct {
	Mean                *float64 `json:"mean"`
	TotalWeight         float64  `json:"total_weight"`
	EffectiveSampleSize float64  `json:"effective_sample_size"`
	SampleCount         int      `json:"sample_count"`
}

// Blend computes the recency-weighted mean of samples. Each sample's weight is
// exp(-max(daysAgo,0)/tau) * max(weight, 0); samples with a non-finite or
// non-positive weight are ignored.
func Blend(samples []Sample, tauDays float64) Result {
	values := make([]float64, 0, len(samples))
	weights := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Value == nil || !numeric.IsFinite(*s.Value) {
			continue
		}
		base := 1.0
		if s.Weight != nil {
			base = *s.Weight
		}
		if !(base > 0) {
			continue
		}
		w := numeric.DecayWeight(s.DaysAgo, tauDays) * base
		if !numeric.IsFinite(w) || w <= 0 {
			continue
		}
		values = append(values, *s.Value)
		weights = append(weights, w)
	}
	return summarize(values, weights)
}

func summarize(values, weights []float64) Result {
	if len(weights) == 0 {
		return Result{}
	}
	total := floats.Sum(weights)
	if !(total > 0) {
		return Result{}
	}
	mean := stat.Mean(values, weights)
	sumSq := floats.Dot(weights, weights)
	ess := float64(len(weights))
	if sumSq > 0 {
		ess = total * total / sumSq
	}
	return Result{
		Mean:                &mean,
		TotalWeight:         total,
		EffectiveSampleSize: ess,
		SampleCount:         len(weights),
	}
}

// Shrink pulls the blended mean toward prior with a pseudo-count of
// priorStrength observations: (ESS*mean + k*prior) / (ESS + k).
func Shrink(r Result, prior, priorStrength float64) float64 {
	if r.Mean == nil {
		return prior
	}
	if !(priorStrength > 0) {
		return *r.Mean
	}
	ess := numeric.NonNegative(r.EffectiveSampleSize)
	return (ess*(*r.Mean) + priorStrength*prior) / (ess + priorStrength)
}
