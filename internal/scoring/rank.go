package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Kingdom is the unit of ranking and similarity comparison. Score is the
// composite power rating on the conventional 0-100 scale; the win rates are
// independent [0, 1] attributes used as similarity dimensions.
type Kingdom struct {
	ID           int     `json:"id"`
	Name         string  `json:"name,omitempty"`
	Score        float64 `json:"score"`
	KvKWinRate   float64 `json:"kvk_win_rate"`
	AltarWinRate float64 `json:"altar_win_rate"`
}

// Ranked is a Kingdom annotated with its leaderboard position. Rank is
// derived from the full population and is read-only from the caller's
// perspective; it is never an input.
type Ranked struct {
	Kingdom
	Rank int `json:"rank"`
}

// RankAll orders kingdoms by descending score and assigns dense 1-based
// ranks. The sort is stable: kingdoms with equal scores keep their input
// order, and each still receives its own distinct rank (position + 1).
//
// Ranks are only meaningful when the input is the complete population.
// Ranking a filtered subset silently produces ranks relative to the subset,
// which is almost never what a leaderboard wants; callers that need a
// subset's ranks should rank everything and filter afterward.
//
// An empty input yields an empty (non-nil) slice, never an error.
func RankAll(kingdoms []Kingdom) []Ranked {
	sorted := make([]Kingdom, len(kingdoms))
	copy(sorted, kingdoms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	ranked := make([]Ranked, len(sorted))
	for i, k := range sorted {
		ranked[i] = Ranked{Kingdom: k, Rank: i + 1}
	}
	return ranked
}

// TopN returns the n best-ranked kingdoms with ranks 1..n. The full
// population must still be supplied; truncation happens after ranking.
// If n exceeds the population size, the whole ranked population is returned.
// A non-positive n yields an empty slice.
func TopN(kingdoms []Kingdom, n int) []Ranked {
	if n < 0 {
		n = 0
	}
	ranked := RankAll(kingdoms)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// ValidateScores reports data-quality problems in a population: non-finite
// scores and exact score collisions. The issues are advisory only; ranking
// still proceeds on dirty data (ties simply receive distinct ranks in input
// order). Returns a human-readable issue list, empty when the data is clean.
func ValidateScores(kingdoms []Kingdom) []string {
	var issues []string

	seen := make(map[float64][]int, len(kingdoms))
	for _, k := range kingdoms {
		if math.IsNaN(k.Score) || math.IsInf(k.Score, 0) {
			issues = append(issues, fmt.Sprintf("kingdom %d has a non-finite score", k.ID))
			continue
		}
		seen[k.Score] = append(seen[k.Score], k.ID)
	}

	// Report collisions in input order of the first colliding kingdom so
	// repeated runs produce identical output.
	reported := make(map[float64]bool)
	for _, k := range kingdoms {
		ids := seen[k.Score]
		if len(ids) < 2 || reported[k.Score] {
			continue
		}
		reported[k.Score] = true
		issues = append(issues, fmt.Sprintf("kingdoms %v share score %g; ranks among them follow input order", ids, k.Score))
	}

	return issues
}
