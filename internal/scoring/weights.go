package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// SimilarityWeights defines the component weights for kingdom similarity.
// The four components always apply, so the weights are expected to sum to
// 1.0; no renormalization happens at scoring time.
type SimilarityWeights struct {
	Score     float64 `json:"score"`      // Weight for composite score closeness (default: 0.40)
	KvKRate   float64 `json:"kvk_rate"`   // Weight for KvK win rate closeness (default: 0.25)
	AltarRate float64 `json:"altar_rate"` // Weight for altar win rate closeness (default: 0.25)
	Tier      float64 `json:"tier"`       // Weight for same-tier bonus (default: 0.10)
}

// MatchWeights defines the dimension weights for transfer compatibility.
// Dimensions only contribute when both sides supply data, and the weighted
// sum is renormalized over the dimensions actually used, so these do not
// need to sum to 1.0 for partial profiles to score fairly.
type MatchWeights struct {
	Power     float64 `json:"power"`      // Weight for minimum power requirement (default: 0.30)
	HallLevel float64 `json:"hall_level"` // Weight for minimum hall level (default: 0.25)
	Playstyle float64 `json:"playstyle"`  // Weight for playstyle match (default: 0.25)
	Perks     float64 `json:"perks"`      // Weight for perk overlap (default: 0.20)
}

// Weights holds all scoring weight configurations.
type Weights struct {
	Similarity SimilarityWeights `json:"similarity"`
	Match      MatchWeights      `json:"match"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default scoring weight configuration.
//
// Similarity formula: sim = (score * 0.40) + (kvk * 0.25) + (altar * 0.25) + (tier * 0.10)
// - Score closeness dominates: kingdoms of similar strength feel alike
// - The two win rates carry equal secondary weight
// - Tier is a soft bonus, never a disqualifier
//
// Match formula (before renormalization): (power * 0.30) + (hall * 0.25) + (playstyle * 0.25) + (perks * 0.20)
func DefaultWeights() *Weights {
	return &Weights{
		Similarity: SimilarityWeights{
			Score:     0.40,
			KvKRate:   0.25,
			AltarRate: 0.25,
			Tier:      0.10,
		},
		Match: MatchWeights{
			Power:     0.30,
			HallLevel: 0.25,
			Playstyle: 0.25,
			Perks:     0.20,
		},
	}
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// Partial configurations are merged with defaults for graceful degradation.
// On any error the default weights are returned alongside the error, so a
// missing or malformed file never takes the service down.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only non-zero
// values from the override are applied, which allows partial overrides in
// the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Similarity.Score != 0 {
		result.Similarity.Score = override.Similarity.Score
	}
	if override.Similarity.KvKRate != 0 {
		result.Similarity.KvKRate = override.Similarity.KvKRate
	}
	if override.Similarity.AltarRate != 0 {
		result.Similarity.AltarRate = override.Similarity.AltarRate
	}
	if override.Similarity.Tier != 0 {
		result.Similarity.Tier = override.Similarity.Tier
	}

	if override.Match.Power != 0 {
		result.Match.Power = override.Match.Power
	}
	if override.Match.HallLevel != 0 {
		result.Match.HallLevel = override.Match.HallLevel
	}
	if override.Match.Playstyle != 0 {
		result.Match.Playstyle = override.Match.Playstyle
	}
	if override.Match.Perks != 0 {
		result.Match.Perks = override.Match.Perks
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	appendDiff := func(name string, def, got float64) {
		if got != def {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, def, got))
		}
	}

	appendDiff("similarity.score", defaults.Similarity.Score, loaded.Similarity.Score)
	appendDiff("similarity.kvk_rate", defaults.Similarity.KvKRate, loaded.Similarity.KvKRate)
	appendDiff("similarity.altar_rate", defaults.Similarity.AltarRate, loaded.Similarity.AltarRate)
	appendDiff("similarity.tier", defaults.Similarity.Tier, loaded.Similarity.Tier)
	appendDiff("match.power", defaults.Match.Power, loaded.Match.Power)
	appendDiff("match.hall_level", defaults.Match.HallLevel, loaded.Match.HallLevel)
	appendDiff("match.playstyle", defaults.Match.Playstyle, loaded.Match.Playstyle)
	appendDiff("match.perks", defaults.Match.Perks, loaded.Match.Perks)

	if len(overrides) > 0 {
		slog.Info("loaded scoring calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded scoring calibration (using all defaults)")
	}
}
