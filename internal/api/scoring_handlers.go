package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kdstats/scoring/internal/middleware"
	"github.com/kdstats/scoring/internal/scoring"
	"github.com/kdstats/scoring/internal/stats"
	"github.com/kdstats/scoring/internal/tracing"
	"github.com/kdstats/scoring/internal/validate"
)

// maxRequestBody bounds request bodies so an oversized payload cannot tie
// up the decoder. Ranking a full season of kingdoms fits comfortably.
const maxRequestBody = 4 << 20

// ScoringHandlers holds dependencies for the scoring HTTP handlers.
type ScoringHandlers struct {
	scorer       *scoring.Scorer
	matcher      *scoring.Matcher
	metrics      *middleware.Metrics
	similarLimit int

	rankStats    *stats.OperationStats
	similarStats *stats.OperationStats
	matchStats   *stats.OperationStats
	batchStats   *stats.OperationStats
}

// NewScoringHandlers creates a new ScoringHandlers instance. similarLimit
// is the result cap applied when a /similar request leaves its limit unset;
// a non-positive value falls back to scoring.DefaultSimilarLimit. The
// metrics parameter may be nil.
func NewScoringHandlers(scorer *scoring.Scorer, matcher *scoring.Matcher, metrics *middleware.Metrics, similarLimit int) *ScoringHandlers {
	if similarLimit <= 0 {
		similarLimit = scoring.DefaultSimilarLimit
	}
	return &ScoringHandlers{
		scorer:       scorer,
		matcher:      matcher,
		metrics:      metrics,
		similarLimit: similarLimit,
		rankStats:    stats.NewOperationStats(),
		similarStats: stats.NewOperationStats(),
		matchStats:   stats.NewOperationStats(),
		batchStats:   stats.NewOperationStats(),
	}
}

// LogStats writes a summary line per operation. Called periodically from
// the server's reporting loop.
func (h *ScoringHandlers) LogStats(logger *slog.Logger) {
	h.rankStats.LogSummary(logger, "rank")
	h.similarStats.LogSummary(logger, "similar")
	h.matchStats.LogSummary(logger, "match")
	h.batchStats.LogSummary(logger, "match_batch")
}

// RankRequest is the body for POST /rank.
type RankRequest struct {
	Kingdoms []scoring.Kingdom `json:"kingdoms"`
}

// RankResponse is the response for POST /rank. Issues lists data-quality
// warnings (non-finite scores, exact ties); ranking proceeds regardless.
type RankResponse struct {
	Ranked []scoring.Ranked `json:"ranked"`
	Issues []string         `json:"issues,omitempty"`
}

// Rank handles POST /rank. It ranks the submitted kingdom population by
// descending score. An optional ?limit=N query parameter truncates the
// result to the top N after ranking.
func (h *ScoringHandlers) Rank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req RankRequest
	if !decodeBody(w, r, &req) {
		return
	}

	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, endSpan := tracing.StartScoringSpan(r.Context(), "rank", len(req.Kingdoms))
	defer endSpan(nil)

	issues := scoring.ValidateScores(req.Kingdoms)
	for _, issue := range issues {
		slog.WarnContext(ctx, "rank input issue", "issue", issue)
	}

	var ranked []scoring.Ranked
	if limit > 0 {
		ranked = scoring.TopN(req.Kingdoms, limit)
	} else {
		ranked = scoring.RankAll(req.Kingdoms)
	}

	h.rankStats.Record(len(req.Kingdoms))
	if h.metrics != nil {
		h.metrics.ObserveScoring("rank", len(req.Kingdoms))
	}

	writeJSON(w, r, http.StatusOK, RankResponse{Ranked: ranked, Issues: issues})
}

// SimilarRequest is the body for POST /similar. Brackets optionally
// restrict the comparison to the reference kingdom's seed; without them the
// whole pool is eligible.
type SimilarRequest struct {
	Reference *scoring.Kingdom      `json:"reference"`
	Pool      []scoring.Kingdom     `json:"pool"`
	Brackets  []scoring.SeedBracket `json:"brackets,omitempty"`
	Limit     int                   `json:"limit,omitempty"`
}

// SimilarResponse is the response for POST /similar.
type SimilarResponse struct {
	Similar []scoring.Similar `json:"similar"`
}

// Similar handles POST /similar. It returns the candidates from the pool
// most similar to the reference kingdom, best first.
func (h *ScoringHandlers) Similar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req SimilarRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reference == nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "reference kingdom is required")
		return
	}
	if req.Limit < 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must not be negative")
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.similarLimit
	}

	_, endSpan := tracing.StartScoringSpan(r.Context(), "similar", len(req.Pool))
	defer endSpan(nil)

	scorer := h.scorer
	if len(req.Brackets) > 0 {
		scorer = scorer.WithBrackets(req.Brackets)
	}
	similar := scorer.SimilarKingdoms(*req.Reference, req.Pool, limit)

	h.similarStats.Record(len(req.Pool))
	if h.metrics != nil {
		h.metrics.ObserveScoring("similar", len(req.Pool))
	}

	writeJSON(w, r, http.StatusOK, SimilarResponse{Similar: similar})
}

// MatchRequest is the body for POST /match.
type MatchRequest struct {
	Applicant *scoring.TransferApplicant  `json:"applicant"`
	Listing   *scoring.RecruitmentListing `json:"listing"`
}

// Match handles POST /match. It scores one applicant against one listing
// and returns the percentage with a per-dimension breakdown.
func (h *ScoringHandlers) Match(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req MatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Applicant == nil || req.Listing == nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "applicant and listing are required")
		return
	}
	if err := validateApplicant(req.Applicant); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	if err := validateListing(req.Listing); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	_, endSpan := tracing.StartScoringSpan(r.Context(), "match", 1)
	defer endSpan(nil)

	result := h.matcher.MatchScore(*req.Applicant, *req.Listing)

	h.matchStats.Record(1)
	if h.metrics != nil {
		h.metrics.ObserveScoring("match", 1)
	}

	writeJSON(w, r, http.StatusOK, result)
}

// MatchBatchRequest is the body for POST /match/batch.
type MatchBatchRequest struct {
	Listing    *scoring.RecruitmentListing `json:"listing"`
	Applicants []scoring.TransferApplicant `json:"applicants"`
}

// MatchBatchResponse is the response for POST /match/batch.
type MatchBatchResponse struct {
	Matches []scoring.RecommendedMatch `json:"matches"`
}

// MatchBatch handles POST /match/batch. It scores every applicant against
// the listing and returns the recommended shortlist, best first.
func (h *ScoringHandlers) MatchBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req MatchBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Listing == nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "listing is required")
		return
	}
	if err := validateListing(req.Listing); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	for i := range req.Applicants {
		if err := validateApplicant(&req.Applicants[i]); err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation,
				fmt.Sprintf("applicant %d: %v", i, err))
			return
		}
	}

	_, endSpan := tracing.StartScoringSpan(r.Context(), "match_batch", len(req.Applicants))
	defer endSpan(nil)

	matches := h.matcher.RecommendedMatches(*req.Listing, req.Applicants)

	h.batchStats.Record(len(req.Applicants))
	if h.metrics != nil {
		h.metrics.ObserveScoring("match_batch", len(req.Applicants))
	}

	writeJSON(w, r, http.StatusOK, MatchBatchResponse{Matches: matches})
}

// validateApplicant checks a transfer applicant's identity and tags.
// Numeric attributes may be zero (missing data skips the dimension) but
// never negative.
func validateApplicant(a *scoring.TransferApplicant) error {
	if _, err := validate.GovernorID(a.GovernorID); err != nil {
		return fmt.Errorf("governor_id: %w", err)
	}
	if a.Power < 0 {
		return errors.New("power must not be negative")
	}
	if a.HallLevel < 0 {
		return errors.New("hall_level must not be negative")
	}
	if a.Playstyle != "" {
		if _, err := validate.Tag(a.Playstyle); err != nil {
			return fmt.Errorf("playstyle: %w", err)
		}
	}
	if _, err := validate.Tags(a.AltPlaystyles); err != nil {
		return fmt.Errorf("alt_playstyles: %w", err)
	}
	if _, err := validate.Tags(a.WantedPerks); err != nil {
		return fmt.Errorf("wanted_perks: %w", err)
	}
	return nil
}

// validateListing checks a recruitment listing's identity and tags.
func validateListing(l *scoring.RecruitmentListing) error {
	if l.KingdomID <= 0 {
		return errors.New("kingdom_id must be a positive integer")
	}
	if l.MinPower < 0 {
		return errors.New("min_power must not be negative")
	}
	if l.MinHallLevel < 0 {
		return errors.New("min_hall_level must not be negative")
	}
	if l.Playstyle != "" {
		if _, err := validate.Tag(l.Playstyle); err != nil {
			return fmt.Errorf("playstyle: %w", err)
		}
	}
	if _, err := validate.Tags(l.AcceptedPlaystyles); err != nil {
		return fmt.Errorf("accepted_playstyles: %w", err)
	}
	if _, err := validate.Tags(l.OfferedPerks); err != nil {
		return fmt.Errorf("offered_perks: %w", err)
	}
	return nil
}

// decodeBody decodes a JSON request body into dst. On failure it writes a
// validation error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid JSON body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			msg = fmt.Sprintf("Request body exceeds %d bytes", maxRequestBody)
		case errors.Is(err, io.EOF):
			msg = "Request body is required"
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, msg)
		return false
	}
	return true
}

// writeJSON writes a JSON success response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err, "path", r.URL.Path)
	}
}
