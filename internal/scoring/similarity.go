package scoring

import (
	"math"
	"sort"
)

// Tierer maps a composite score to a letter tier. Tiering policy lives
// outside this package (see internal/tier) so that similarity scoring stays
// decoupled from how the site buckets kingdoms.
type Tierer interface {
	Tier(score float64) string
}

// SeedBracket is an inclusive kingdom-number interval used to restrict
// similarity comparisons to kingdoms from the same seed.
type SeedBracket struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Contains reports whether the kingdom number falls inside the bracket.
func (b SeedBracket) Contains(id int) bool {
	return id >= b.Low && id <= b.High
}

// Similar is a candidate kingdom annotated with its similarity percentage
// to the reference kingdom.
type Similar struct {
	Kingdom
	SimilarityPercent int `json:"similarity_percent"`
}

// Default similarity tunables.
const (
	// DefaultMaxScoreDiff is the score delta treated as "nothing in
	// common". Scores live on a 0-100 scale, so the full practical range
	// is used: a 2-point gap costs 2% of the score component. Earlier
	// revisions of the site used 10 here in one call site, which made the
	// score component collapse for modest gaps; 100 is the documented
	// choice for every caller now.
	DefaultMaxScoreDiff = 100.0

	// DefaultMinSimilarityPercent is the inclusion floor: candidates
	// below it are not worth showing on a profile page.
	DefaultMinSimilarityPercent = 70

	// DefaultSimilarLimit caps how many similar kingdoms are returned
	// when the caller does not ask for a specific count.
	DefaultSimilarLimit = 5
)

// Scorer computes kingdom-to-kingdom similarity. The zero value is not
// usable; construct with NewScorer.
type Scorer struct {
	tierer   Tierer
	weights  SimilarityWeights
	brackets []SeedBracket

	// MaxScoreDiff is the score delta at which the score component
	// reaches zero.
	MaxScoreDiff float64
	// MinPercent is the minimum similarity percentage for inclusion.
	MinPercent int
}

// NewScorer creates a similarity scorer with the given tiering policy and
// weights. Brackets are optional: when none are configured, the whole pool
// is eligible. When brackets are configured, a reference kingdom outside
// every bracket produces an empty result (fail closed).
func NewScorer(tierer Tierer, weights SimilarityWeights, brackets []SeedBracket) *Scorer {
	return &Scorer{
		tierer:       tierer,
		weights:      weights,
		brackets:     brackets,
		MaxScoreDiff: DefaultMaxScoreDiff,
		MinPercent:   DefaultMinSimilarityPercent,
	}
}

// WithBrackets returns a copy of the scorer gated by the given brackets,
// keeping the tiering policy, weights and tunables. Used when a caller
// supplies its own seed boundaries for one comparison.
func (s *Scorer) WithBrackets(brackets []SeedBracket) *Scorer {
	copied := *s
	copied.brackets = brackets
	return &copied
}

// bracketFor returns the bracket containing the kingdom number, or false
// when the kingdom is outside every configured bracket.
func (s *Scorer) bracketFor(id int) (SeedBracket, bool) {
	for _, b := range s.brackets {
		if b.Contains(id) {
			return b, true
		}
	}
	return SeedBracket{}, false
}

// SimilarKingdoms returns up to limit candidates ordered by descending
// similarity to ref, each annotated with an integer similarity percentage,
// restricted to candidates scoring at least MinPercent.
//
// The reference kingdom itself is excluded from the pool by ID. When seed
// brackets are configured, only candidates inside the reference kingdom's
// bracket are considered; a reference outside all brackets yields an empty
// result. Note the gate is one-sided: the candidate's own bracket never
// matters, only whether the candidate's number falls inside the reference's
// bracket.
//
// A non-positive limit falls back to DefaultSimilarLimit. The result is
// never nil and is empty when nothing qualifies.
func (s *Scorer) SimilarKingdoms(ref Kingdom, pool []Kingdom, limit int) []Similar {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	var bracket SeedBracket
	restrict := len(s.brackets) > 0
	if restrict {
		var ok bool
		bracket, ok = s.bracketFor(ref.ID)
		if !ok {
			return []Similar{}
		}
	}

	results := make([]Similar, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID == ref.ID {
			continue
		}
		if restrict && !bracket.Contains(candidate.ID) {
			continue
		}

		percent := s.similarity(ref, candidate)
		if percent < s.MinPercent {
			continue
		}
		results = append(results, Similar{Kingdom: candidate, SimilarityPercent: percent})
	}

	// Descending by similarity, ascending ID as a deterministic tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SimilarityPercent != results[j].SimilarityPercent {
			return results[i].SimilarityPercent > results[j].SimilarityPercent
		}
		return results[i].ID < results[j].ID
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results
}

// similarity computes the raw 0-100 similarity percentage between two
// kingdoms. Every component is pre-normalized to [0, 1], so with weights
// summing to 1.0 the combined value is already a percentage after scaling.
func (s *Scorer) similarity(ref, candidate Kingdom) int {
	scoreSim := 0.0
	if s.MaxScoreDiff > 0 {
		scoreSim = math.Max(0, 1-math.Abs(ref.Score-candidate.Score)/s.MaxScoreDiff)
	}

	// Win rates are already [0, 1]; a full-range delta yields 0 similarity.
	kvkSim := 1 - math.Abs(ref.KvKWinRate-candidate.KvKWinRate)
	altarSim := 1 - math.Abs(ref.AltarWinRate-candidate.AltarWinRate)

	// Same tier is a bonus, a different tier a soft penalty. Never 0: tier
	// alone must not disqualify an otherwise close kingdom.
	tierSim := 0.5
	if s.tierer != nil && s.tierer.Tier(ref.Score) == s.tierer.Tier(candidate.Score) {
		tierSim = 1.0
	}

	combined := Combine([]Term{
		{Weight: s.weights.Score, Value: scoreSim, Applicable: true},
		{Weight: s.weights.KvKRate, Value: kvkSim, Applicable: true},
		{Weight: s.weights.AltarRate, Value: altarSim, Applicable: true},
		{Weight: s.weights.Tier, Value: tierSim, Applicable: true},
	}, false)

	return Percent(combined)
}
