package scoring

import "math"

// Term is a single weighted component of a composite score.
// Value is expected to be normalized to the [0, 1] range before weighting.
// Terms with Applicable == false are skipped entirely; they neither add to
// the weighted sum nor to the weight total.
type Term struct {
	Weight     float64
	Value      float64
	Applicable bool
}

// Combine aggregates weighted terms into a single [0, 1] score.
//
// When renormalize is false, the result is the plain weighted sum. This is
// correct when the caller guarantees the applicable weights sum to 1.0
// (e.g. the similarity formula, where every dimension always applies).
//
// When renormalize is true, the weighted sum is divided by the sum of the
// weights that actually applied, so partial data is scored only on the
// dimensions present rather than penalized for the missing ones. If no term
// applies, the result is 0.
func Combine(terms []Term, renormalize bool) float64 {
	var weightedSum, totalWeight float64
	for _, t := range terms {
		if !t.Applicable {
			continue
		}
		weightedSum += t.Weight * clamp01(t.Value)
		totalWeight += t.Weight
	}

	if !renormalize {
		return weightedSum
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// Percent converts a [0, 1] score to an integer percentage, rounding half up.
func Percent(score float64) int {
	return int(math.Round(clamp01(score) * 100))
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
