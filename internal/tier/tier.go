// Package tier maps composite kingdom scores to letter tiers. Tiering is a
// site-wide display policy rather than part of the scoring math, so it lives
// in its own package and is injected into the similarity scorer.
package tier

// Tier letters from strongest to weakest.
const (
	TierS = "S"
	TierA = "A"
	TierB = "B"
	TierC = "C"
	TierD = "D"
)

// Thresholds for the default policy. A score at the threshold belongs to
// the higher tier.
const (
	thresholdS = 90.0
	thresholdA = 75.0
	thresholdB = 60.0
	thresholdC = 40.0
)

// Policy is the default tiering policy. It is stateless; the zero value is
// ready to use.
type Policy struct{}

// Tier returns the letter tier for a composite score.
func (Policy) Tier(score float64) string {
	switch {
	case score >= thresholdS:
		return TierS
	case score >= thresholdA:
		return TierA
	case score >= thresholdB:
		return TierB
	case score >= thresholdC:
		return TierC
	default:
		return TierD
	}
}
