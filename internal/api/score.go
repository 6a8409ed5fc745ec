package api

import (
	"encoding/json"
	"net/http"

	"github.com/tmgate/tmgate/pkg/scoring"
)

// scoreRequest is the JSON body for POST /api/v1/score. When ProjectID and
// Calibration are set, the metric values are treated as raw signals and
// calibrated before aggregation; otherwise they are used as-is. A missing
// term_match defaults to 100, the no-terminology case.
type scoreRequest struct {
	Metrics     scoreMetrics      `json:"metrics"`
	MatchType   scoring.MatchType `json:"match_type"`
	ProjectID   string            `json:"project_id,omitempty"`
	Calibration string            `json:"calibration,omitempty"`
}

type scoreMetrics struct {
	Accuracy       float64  `json:"accuracy"`
	Fluency        float64  `json:"fluency"`
	Tone           float64  `json:"tone"`
	TermMatch      *float64 `json:"term_match"`
	Hallucination  bool     `json:"hallucination"`
	TermViolations bool     `json:"term_violations"`
}

type scoreResponse struct {
	WeightedScore float64          `json:"weighted_score"`
	Decision      scoring.Decision `json:"decision"`
	MatchRate     float64          `json:"match_rate"`
}

// handleScore scores a single translation unit synchronously.
func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MatchType == "" {
		req.MatchType = scoring.MatchTypeNew
	}
	termMatch := 100.0
	if req.Metrics.TermMatch != nil {
		termMatch = *req.Metrics.TermMatch
	}

	mappings, err := h.loadMappings(r, req.ProjectID, req.Calibration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "load calibration: "+err.Error())
		return
	}

	result := h.aggregator.Aggregate(scoring.MetricScores{
		Accuracy:       mappings.Apply("accuracy", req.Metrics.Accuracy),
		Fluency:        mappings.Apply("fluency", req.Metrics.Fluency),
		Tone:           mappings.Apply("tone", req.Metrics.Tone),
		TermMatch:      mappings.Apply("term_match", termMatch),
		Hallucination:  req.Metrics.Hallucination,
		TermViolations: req.Metrics.TermViolations,
	})

	writeJSON(w, http.StatusOK, scoreResponse{
		WeightedScore: result.WeightedScore,
		Decision:      result.Decision,
		MatchRate:     scoring.MatchRateEquivalent(result.WeightedScore, req.MatchType),
	})
}
