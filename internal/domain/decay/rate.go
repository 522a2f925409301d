package decay

import "github.com/okian/rinkcast/internal/domain/numeric"

// RateSample is a single-game numerator/denominator pair, e.g. ixG over
// minutes played.
type RateSample struct {
	Numer   float64
	Denom   float64
	DaysAgo float64
}

// RateBlend decays per-game rates weighted by their denominators, so the mean
// equals sum(d*numer) / sum(d*denom). Games with a non-positive denominator
// carry no information and are skipped.
func RateBlend(samples []RateSample, tauDays float64) Result {
	values := make([]float64, 0, len(samples))
	weights := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !numeric.IsFinite(s.Numer) || !(s.Denom > 0) || !numeric.IsFinite(s.Denom) {
			continue
		}
		w := numeric.DecayWeight(s.DaysAgo, tauDays) * s.Denom
		if !numeric.IsFinite(w) || w <= 0 {
			continue
		}
		values = append(values, s.Numer/s.Denom)
		weights = append(weights, w)
	}
	return summarize(values, weights)
}
