// Package scoring provides the weighted multi-factor scoring engine behind
// kingdom leaderboards, similar-kingdom suggestions, and transfer-hub match
// recommendations.
//
// Three scorers share one pattern: a weighted sum of sub-scores that are
// each pre-normalized to [0, 1], optionally renormalized over the weights
// that actually applied (Combine). All of them are pure, synchronous, and
// deterministic; they hold no state beyond their configuration and are safe
// to call concurrently.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := scoring.LoadCalibration("configs/scoring.calibration.json")
//	if err != nil {
//		slog.Warn("using default weights", "error", err)
//	}
//
//	// Leaderboard: rank the complete population
//	ranked := scoring.RankAll(kingdoms)
//
//	// Similar kingdoms for a profile page
//	scorer := scoring.NewScorer(tier.Policy{}, weights.Similarity, brackets)
//	similar := scorer.SimilarKingdoms(ref, kingdoms, 5)
//
//	// Transfer-hub recommendations for a recruiting post
//	matcher := scoring.NewMatcher(weights.Match)
//	recs := matcher.RecommendedMatches(listing, applicants)
//
// Calibration:
//
// Weights are tunable at deploy time via a JSON calibration file loaded at
// startup. Partial files merge over the defaults, and any load failure
// falls back to defaults, so calibration can never take the service down.
package scoring
