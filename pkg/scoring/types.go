// Package scoring implements the TMGate quality-decision engine.
// It combines calibrated per-metric quality scores into a weighted
// confidence score, routes each translation unit to a discrete decision,
// and derives a TMS-compatible match-rate equivalent.
package scoring

// Decision is the routing outcome for a single translation unit.
type Decision string

const (
	// DecisionAcceptAuto routes the unit straight into the TM without review.
	DecisionAcceptAuto Decision = "accept_auto"
	// DecisionAcceptWithReview routes the unit to a lightweight review queue.
	DecisionAcceptWithReview Decision = "accept_with_review"
	// DecisionNeedsHumanRevision routes the unit to full human revision.
	DecisionNeedsHumanRevision Decision = "needs_human_revision"
)

// MatchType classifies how a translation unit was produced, which selects
// the match-rate band reported to the TMS.
type MatchType string

const (
	MatchTypeExact       MatchType = "exact"
	MatchTypeFuzzyRepair MatchType = "fuzzy_repair"
	MatchTypeNew         MatchType = "new"
)

// MetricScores holds one unit's calibrated per-metric quality values in
// [0,100] plus the quality-estimation override flags. Supplying values
// outside [0,100] is a caller error; the aggregator does not reject them.
type MetricScores struct {
	Accuracy  float64 `json:"accuracy"`
	Fluency   float64 `json:"fluency"`
	Tone      float64 `json:"tone"`
	TermMatch float64 `json:"term_match"`

	Hallucination  bool `json:"hallucination"`
	TermViolations bool `json:"term_violations"`
}

// Result is the output of aggregating one translation unit.
type Result struct {
	WeightedScore float64  `json:"weighted_score"`
	Decision      Decision `json:"decision"`
}
