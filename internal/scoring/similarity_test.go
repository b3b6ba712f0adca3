package scoring

import (
	"reflect"
	"testing"
)

// stubTierer buckets scores into coarse letter tiers for tests.
type stubTierer struct{}

func (stubTierer) Tier(score float64) string {
	switch {
	case score >= 75:
		return "A"
	case score >= 40:
		return "B"
	default:
		return "C"
	}
}

func newTestScorer(brackets []SeedBracket) *Scorer {
	return NewScorer(stubTierer{}, DefaultWeights().Similarity, brackets)
}

// TestSimilarKingdoms_EndToEnd verifies the documented worked example:
// reference score 50.0 with rates (0.60, 0.40) against a candidate at 48.0
// with rates (0.58, 0.42) in the same tier computes to 98%.
func TestSimilarKingdoms_EndToEnd(t *testing.T) {
	scorer := newTestScorer(nil)
	ref := Kingdom{ID: 1200, Score: 50.0, KvKWinRate: 0.60, AltarWinRate: 0.40}
	pool := []Kingdom{
		{ID: 1201, Score: 48.0, KvKWinRate: 0.58, AltarWinRate: 0.42}, // 98%
		{ID: 1202, Score: 20.0, KvKWinRate: 0.10, AltarWinRate: 0.90}, // below floor
		{ID: 1203, Score: 45.0, KvKWinRate: 0.30, AltarWinRate: 0.20}, // mid 80s
	}

	got := scorer.SimilarKingdoms(ref, pool, 10)

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d: %v", len(got), got)
	}
	if got[0].ID != 1201 || got[0].SimilarityPercent != 98 {
		t.Errorf("expected kingdom 1201 at 98%%, got kingdom %d at %d%%", got[0].ID, got[0].SimilarityPercent)
	}
	if got[1].ID != 1203 {
		t.Errorf("expected kingdom 1203 second, got %d", got[1].ID)
	}
	if got[0].SimilarityPercent <= got[1].SimilarityPercent {
		t.Errorf("results not in descending order: %d then %d", got[0].SimilarityPercent, got[1].SimilarityPercent)
	}
}

// TestSimilarKingdoms_Bounds verifies every returned percentage sits in the
// post-filter [70, 100] range and the raw computation in [0, 100].
func TestSimilarKingdoms_Bounds(t *testing.T) {
	scorer := newTestScorer(nil)
	ref := Kingdom{ID: 1, Score: 100, KvKWinRate: 1, AltarWinRate: 1}
	pool := []Kingdom{
		{ID: 2, Score: 100, KvKWinRate: 1, AltarWinRate: 1},
		{ID: 3, Score: 97, KvKWinRate: 0.9, AltarWinRate: 0.95},
		{ID: 4, Score: 0, KvKWinRate: 0, AltarWinRate: 0},
		{ID: 5, Score: 55, KvKWinRate: 0.5, AltarWinRate: 0.4},
	}

	for _, candidate := range pool {
		raw := scorer.similarity(ref, candidate)
		if raw < 0 || raw > 100 {
			t.Errorf("raw similarity for kingdom %d out of [0, 100]: %d", candidate.ID, raw)
		}
	}

	for _, s := range scorer.SimilarKingdoms(ref, pool, 10) {
		if s.SimilarityPercent < scorer.MinPercent || s.SimilarityPercent > 100 {
			t.Errorf("kingdom %d similarity %d%% outside [%d, 100]", s.ID, s.SimilarityPercent, scorer.MinPercent)
		}
	}
}

// TestSimilarKingdoms_ExcludesReference verifies the reference kingdom is
// never its own candidate even when present in the pool.
func TestSimilarKingdoms_ExcludesReference(t *testing.T) {
	scorer := newTestScorer(nil)
	ref := Kingdom{ID: 1, Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5}
	pool := []Kingdom{
		ref,
		{ID: 2, Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5},
	}

	got := scorer.SimilarKingdoms(ref, pool, 10)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only kingdom 2, got %v", got)
	}
}

// TestSimilarKingdoms_BracketGate tests the fail-closed seed bracket
// restriction, including its intentional asymmetry: inclusion is gated by
// the reference kingdom's bracket only, never the candidate's own.
func TestSimilarKingdoms_BracketGate(t *testing.T) {
	// Overlapping brackets: kingdom 95 resolves to the first bracket,
	// kingdom 150 to the second.
	brackets := []SeedBracket{
		{Low: 1, High: 100},
		{Low: 90, High: 200},
	}
	near := Kingdom{Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5}

	t.Run("reference outside all brackets fails closed", func(t *testing.T) {
		scorer := newTestScorer(brackets)
		ref := near
		ref.ID = 999
		candidate := near
		candidate.ID = 50

		got := scorer.SimilarKingdoms(ref, []Kingdom{candidate}, 10)
		if len(got) != 0 {
			t.Errorf("expected empty result for unbracketed reference, got %v", got)
		}
	})

	t.Run("candidate outside reference bracket is excluded", func(t *testing.T) {
		scorer := newTestScorer(brackets)
		ref := near
		ref.ID = 50 // bracket [1, 100]
		candidate := near
		candidate.ID = 150 // outside [1, 100]

		got := scorer.SimilarKingdoms(ref, []Kingdom{candidate}, 10)
		if len(got) != 0 {
			t.Errorf("expected candidate 150 excluded from bracket [1,100], got %v", got)
		}
	})

	t.Run("gate is asymmetric", func(t *testing.T) {
		scorer := newTestScorer(brackets)
		ref := near
		ref.ID = 150 // resolves to bracket [90, 200]
		candidate := near
		candidate.ID = 95 // in [90, 200], but its own bracket is [1, 100], which excludes 150

		got := scorer.SimilarKingdoms(ref, []Kingdom{candidate}, 10)
		if len(got) != 1 || got[0].ID != 95 {
			t.Fatalf("expected candidate 95 included via reference bracket, got %v", got)
		}

		// The reverse direction really is different: with 95 as the
		// reference, 150 is out of reach.
		reverse := scorer.SimilarKingdoms(candidate, []Kingdom{ref}, 10)
		if len(reverse) != 0 {
			t.Errorf("expected 150 excluded from 95's bracket, got %v", reverse)
		}
	})

	t.Run("no brackets configured means no restriction", func(t *testing.T) {
		scorer := newTestScorer(nil)
		ref := near
		ref.ID = 999
		candidate := near
		candidate.ID = 50

		got := scorer.SimilarKingdoms(ref, []Kingdom{candidate}, 10)
		if len(got) != 1 {
			t.Errorf("expected candidate included without brackets, got %v", got)
		}
	})
}

func TestScorer_WithBrackets(t *testing.T) {
	base := newTestScorer(nil)
	base.MinPercent = 95

	gated := base.WithBrackets([]SeedBracket{{Low: 1, High: 100}})

	near := Kingdom{Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5}
	ref := near
	ref.ID = 50
	inBracket := near
	inBracket.ID = 60
	outOfBracket := near
	outOfBracket.ID = 900

	got := gated.SimilarKingdoms(ref, []Kingdom{inBracket, outOfBracket}, 10)
	if len(got) != 1 || got[0].ID != 60 {
		t.Fatalf("expected only kingdom 60 from gated copy, got %v", got)
	}
	// Tunables carry over: an identical candidate scores 100, so the
	// raised floor still admits it, but a weaker one would not.
	weak := Kingdom{ID: 70, Score: 30, KvKWinRate: 0.5, AltarWinRate: 0.5}
	if res := gated.SimilarKingdoms(ref, []Kingdom{weak}, 10); len(res) != 0 {
		t.Errorf("expected raised MinPercent to carry into the copy, got %v", res)
	}

	// The original scorer stays unrestricted.
	if res := base.SimilarKingdoms(ref, []Kingdom{outOfBracket}, 10); len(res) != 1 {
		t.Errorf("expected original scorer unaffected by WithBrackets, got %v", res)
	}
}

// TestSimilarKingdoms_LimitAndTieBreak tests truncation and deterministic
// ordering among equal similarities.
func TestSimilarKingdoms_LimitAndTieBreak(t *testing.T) {
	scorer := newTestScorer(nil)
	ref := Kingdom{ID: 1, Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5}

	// All candidates identical to the reference: every similarity is 100.
	pool := make([]Kingdom, 0, 7)
	for id := 8; id >= 2; id-- {
		pool = append(pool, Kingdom{ID: id, Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5})
	}

	got := scorer.SimilarKingdoms(ref, pool, 3)
	gotIDs := make([]int, len(got))
	for i, s := range got {
		gotIDs[i] = s.ID
	}
	if !reflect.DeepEqual(gotIDs, []int{2, 3, 4}) {
		t.Errorf("expected IDs [2 3 4] after tie-break and truncation, got %v", gotIDs)
	}
}

// TestSimilarKingdoms_EmptyPool verifies empty input yields an empty
// result, not an error or nil.
func TestSimilarKingdoms_EmptyPool(t *testing.T) {
	scorer := newTestScorer(nil)
	got := scorer.SimilarKingdoms(Kingdom{ID: 1}, nil, 5)
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

// TestSimilarity_TierBonus verifies a cross-tier pair is softly penalized
// rather than disqualified.
func TestSimilarity_TierBonus(t *testing.T) {
	scorer := newTestScorer(nil)

	sameTier := scorer.similarity(
		Kingdom{ID: 1, Score: 50, KvKWinRate: 0.5, AltarWinRate: 0.5},
		Kingdom{ID: 2, Score: 52, KvKWinRate: 0.5, AltarWinRate: 0.5},
	)
	crossTier := scorer.similarity(
		Kingdom{ID: 1, Score: 41, KvKWinRate: 0.5, AltarWinRate: 0.5},
		Kingdom{ID: 2, Score: 39, KvKWinRate: 0.5, AltarWinRate: 0.5},
	)

	// Same score gap, same rates; crossing the tier boundary costs half
	// the tier weight (5 points), never the whole component.
	if sameTier-crossTier != 5 {
		t.Errorf("expected tier boundary to cost 5 points, same=%d cross=%d", sameTier, crossTier)
	}
}
