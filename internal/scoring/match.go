package scoring

import "sort"

// TransferApplicant describes a governor looking for a new kingdom.
// Zero or empty fields mean the governor did not supply that attribute;
// the matcher skips dimensions with missing data on either side.
type TransferApplicant struct {
	GovernorID string  `json:"governor_id"`
	Power      float64 `json:"power"`
	HallLevel  int     `json:"hall_level"`
	Playstyle  string  `json:"playstyle"`
	// AltPlaystyles lists styles the governor also plays. Carried on the
	// profile for recruiter display; the playstyle dimension compares only
	// the primary tag against the listing's accepted set.
	AltPlaystyles []string `json:"alt_playstyles,omitempty"`
	WantedPerks   []string `json:"wanted_perks"`
}

// RecruitmentListing describes a kingdom's recruiting post: requirement
// thresholds plus what the kingdom offers. Zero thresholds mean "no
// requirement", which excludes the dimension rather than auto-passing it.
type RecruitmentListing struct {
	KingdomID          int      `json:"kingdom_id"`
	MinPower           float64  `json:"min_power"`
	MinHallLevel       int      `json:"min_hall_level"`
	Playstyle          string   `json:"playstyle"`
	AcceptedPlaystyles []string `json:"accepted_playstyles"`
	OfferedPerks       []string `json:"offered_perks"`
}

// MatchDimension records how one dimension contributed to a match score,
// for display and audit on recruiter dashboards.
type MatchDimension struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// MatchResult is the outcome of scoring one applicant against one listing.
type MatchResult struct {
	ScorePercent int              `json:"score_percent"`
	Breakdown    []MatchDimension `json:"breakdown"`
}

// RecommendedMatch is an applicant annotated with its match percentage for
// one listing.
type RecommendedMatch struct {
	GovernorID   string `json:"governor_id"`
	ScorePercent int    `json:"score_percent"`
}

// Default recommendation tunables.
const (
	// DefaultMinMatchPercent is the floor for showing an applicant on a
	// recruiter dashboard.
	DefaultMinMatchPercent = 50

	// DefaultRecommendationCount caps how many recommended applicants a
	// dashboard displays per listing.
	DefaultRecommendationCount = 8
)

// Matcher computes transfer compatibility between applicants and listings.
type Matcher struct {
	weights MatchWeights

	// MinPercent is the inclusion floor for RecommendedMatches.
	MinPercent int
	// RecommendationCount caps the RecommendedMatches result length.
	RecommendationCount int
}

// NewMatcher creates a compatibility matcher with the given weights.
func NewMatcher(weights MatchWeights) *Matcher {
	return &Matcher{
		weights:             weights,
		MinPercent:          DefaultMinMatchPercent,
		RecommendationCount: DefaultRecommendationCount,
	}
}

// MatchScore computes the 0-100 compatibility between an applicant and a
// listing. Each dimension contributes only when both sides supply data for
// it, and the weighted sum is renormalized over the weights of the
// dimensions actually used. A pair with no overlapping dimensions scores 0.
//
// The function is pure: no I/O, no shared state, identical inputs always
// produce an identical result.
func (m *Matcher) MatchScore(applicant TransferApplicant, listing RecruitmentListing) MatchResult {
	dims := []MatchDimension{
		m.powerDimension(applicant, listing),
		m.hallLevelDimension(applicant, listing),
		m.playstyleDimension(applicant, listing),
		m.perkDimension(applicant, listing),
	}

	terms := make([]Term, 0, len(dims))
	breakdown := make([]MatchDimension, 0, len(dims))
	for _, d := range dims {
		if d.Weight == 0 {
			continue
		}
		terms = append(terms, Term{Weight: d.Weight, Value: d.Score, Applicable: true})
		breakdown = append(breakdown, d)
	}

	return MatchResult{
		ScorePercent: Percent(Combine(terms, true)),
		Breakdown:    breakdown,
	}
}

// powerDimension scores the applicant's power against the listing's minimum.
// An applicant below the bar gets partial credit proportional to how close
// they are, rather than a hard zero.
func (m *Matcher) powerDimension(a TransferApplicant, l RecruitmentListing) MatchDimension {
	if l.MinPower <= 0 || a.Power <= 0 {
		return MatchDimension{Name: "power"}
	}
	score := 1.0
	if a.Power < l.MinPower {
		score = a.Power / l.MinPower
	}
	return MatchDimension{Name: "power", Weight: m.weights.Power, Score: score}
}

// hallLevelDimension scores hall level as a step function: a close miss is
// almost as good as meeting the bar, a far miss is much worse.
func (m *Matcher) hallLevelDimension(a TransferApplicant, l RecruitmentListing) MatchDimension {
	if l.MinHallLevel <= 0 || a.HallLevel <= 0 {
		return MatchDimension{Name: "hall_level"}
	}
	shortfall := l.MinHallLevel - a.HallLevel
	var score float64
	switch {
	case shortfall <= 0:
		score = 1.0
	case shortfall <= 2:
		score = 0.7
	case shortfall <= 5:
		score = 0.3
	default:
		score = 0.0
	}
	return MatchDimension{Name: "hall_level", Weight: m.weights.HallLevel, Score: score}
}

// playstyleDimension scores the primary playstyle: exact match is full
// credit, an accepted alternative is partial, anything else is zero.
func (m *Matcher) playstyleDimension(a TransferApplicant, l RecruitmentListing) MatchDimension {
	if a.Playstyle == "" || l.Playstyle == "" {
		return MatchDimension{Name: "playstyle"}
	}
	score := 0.0
	switch {
	case a.Playstyle == l.Playstyle:
		score = 1.0
	case containsString(l.AcceptedPlaystyles, a.Playstyle):
		score = 0.6
	}
	return MatchDimension{Name: "playstyle", Weight: m.weights.Playstyle, Score: score}
}

// perkDimension scores the overlap between wanted and offered perks. Any
// overlap at all earns an immediate 0.5 floor, scaling toward 1.0 as the
// intersection approaches the size of the smaller set.
func (m *Matcher) perkDimension(a TransferApplicant, l RecruitmentListing) MatchDimension {
	if len(a.WantedPerks) == 0 || len(l.OfferedPerks) == 0 {
		return MatchDimension{Name: "perks"}
	}

	offered := make(map[string]bool, len(l.OfferedPerks))
	for _, p := range l.OfferedPerks {
		offered[p] = true
	}
	overlap := 0
	for _, p := range a.WantedPerks {
		if offered[p] {
			overlap++
		}
	}

	score := 0.0
	if overlap > 0 {
		smaller := len(a.WantedPerks)
		if len(l.OfferedPerks) < smaller {
			smaller = len(l.OfferedPerks)
		}
		score = 0.5 + 0.5*float64(overlap)/float64(smaller)
		if score > 1 {
			score = 1
		}
	}
	return MatchDimension{Name: "perks", Weight: m.weights.Perks, Score: score}
}

// RecommendedMatches scores every applicant against one listing, keeps
// those at or above MinPercent, orders them by descending score (ascending
// governor ID on ties) and truncates to RecommendationCount. The result is
// never nil; an empty applicant pool yields an empty list.
func (m *Matcher) RecommendedMatches(listing RecruitmentListing, applicants []TransferApplicant) []RecommendedMatch {
	results := make([]RecommendedMatch, 0, len(applicants))
	for _, a := range applicants {
		result := m.MatchScore(a, listing)
		if result.ScorePercent < m.MinPercent {
			continue
		}
		results = append(results, RecommendedMatch{
			GovernorID:   a.GovernorID,
			ScorePercent: result.ScorePercent,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ScorePercent != results[j].ScorePercent {
			return results[i].ScorePercent > results[j].ScorePercent
		}
		return results[i].GovernorID < results[j].GovernorID
	})

	if m.RecommendationCount > 0 && m.RecommendationCount < len(results) {
		results = results[:m.RecommendationCount]
	}
	return results
}

// containsString reports whether list contains s.
func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
