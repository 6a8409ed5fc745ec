package scoring_test

import (
	"errors"
	"math"
	"testing"

	"github.com/tmgate/tmgate/pkg/scoring"
)

func newDefaultAggregator(t *testing.T) *scoring.Aggregator {
	t.Helper()
	agg, err := scoring.NewAggregator(scoring.DefaultWeights(), scoring.DefaultThresholds())
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return agg
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateHighQualityAutoAccepts(t *testing.T) {
	agg := newDefaultAggregator(t)

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 90, Fluency: 85, Tone: 80, TermMatch: 100,
	})
	if !almostEqual(res.WeightedScore, 97.25) {
		t.Errorf("WeightedScore = %v, want 97.25", res.WeightedScore)
	}
	if res.Decision != scoring.DecisionAcceptAuto {
		t.Errorf("Decision = %q, want accept_auto", res.Decision)
	}
}

func TestAggregateLowQualityNeedsRevision(t *testing.T) {
	agg := newDefaultAggregator(t)

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 50, Fluency: 45, Tone: 40, TermMatch: 100,
	})
	if !almostEqual(res.WeightedScore, 57.25) {
		t.Errorf("WeightedScore = %v, want 57.25", res.WeightedScore)
	}
	if res.Decision != scoring.DecisionNeedsHumanRevision {
		t.Errorf("Decision = %q, want needs_human_revision", res.Decision)
	}
}

func TestAggregateMidQualityAcceptsWithReview(t *testing.T) {
	agg := newDefaultAggregator(t)

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 75, Fluency: 70, Tone: 70, TermMatch: 90,
	})
	if res.Decision != scoring.DecisionAcceptWithReview {
		t.Errorf("Decision = %q (score %v), want accept_with_review",
			res.Decision, res.WeightedScore)
	}
}

func TestAggregateHallucinationPenalty(t *testing.T) {
	agg := newDefaultAggregator(t)

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 90, Fluency: 85, Tone: 80, TermMatch: 100,
		Hallucination: true,
	})
	if !almostEqual(res.WeightedScore, 24.3125) {
		t.Errorf("WeightedScore = %v, want 24.3125", res.WeightedScore)
	}
	if res.Decision != scoring.DecisionNeedsHumanRevision {
		t.Errorf("Decision = %q, want needs_human_revision", res.Decision)
	}
}

func TestAggregateTermViolationsPenalty(t *testing.T) {
	agg := newDefaultAggregator(t)

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 90, Fluency: 85, Tone: 80, TermMatch: 100,
		TermViolations: true,
	})
	if !almostEqual(res.WeightedScore, 82.6625) {
		t.Errorf("WeightedScore = %v, want 82.6625", res.WeightedScore)
	}
	// 82.66 would clear accept_with_review on score alone; the flag
	// override must win.
	if res.Decision != scoring.DecisionNeedsHumanRevision {
		t.Errorf("Decision = %q, want needs_human_revision", res.Decision)
	}
}

func TestAggregateBothPenaltiesCompose(t *testing.T) {
	agg := newDefaultAggregator(t)

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 90, Fluency: 85, Tone: 80, TermMatch: 100,
		Hallucination: true, TermViolations: true,
	})
	if !almostEqual(res.WeightedScore, 97.25*0.2125) {
		t.Errorf("WeightedScore = %v, want %v", res.WeightedScore, 97.25*0.2125)
	}
	if res.Decision != scoring.DecisionNeedsHumanRevision {
		t.Errorf("Decision = %q, want needs_human_revision", res.Decision)
	}
}

func TestAggregateHallucinationOverridesAnyScore(t *testing.T) {
	// Even a perfect unit must land in human revision when flagged.
	agg, err := scoring.NewAggregator(scoring.DefaultWeights(), scoring.Thresholds{
		AcceptAuto:       1,
		AcceptWithReview: 0,
	})
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}

	res := agg.Aggregate(scoring.MetricScores{
		Accuracy: 100, Fluency: 100, Tone: 100, TermMatch: 100,
		Hallucination: true,
	})
	if res.Decision != scoring.DecisionNeedsHumanRevision {
		t.Errorf("Decision = %q, want needs_human_revision", res.Decision)
	}
}

func TestAggregateDecisionAlwaysInSet(t *testing.T) {
	agg := newDefaultAggregator(t)

	valid := map[scoring.Decision]bool{
		scoring.DecisionAcceptAuto:         true,
		scoring.DecisionAcceptWithReview:   true,
		scoring.DecisionNeedsHumanRevision: true,
	}
	for acc := 0.0; acc <= 100; acc += 20 {
		for fl := 0.0; fl <= 100; fl += 25 {
			res := agg.Aggregate(scoring.MetricScores{
				Accuracy: acc, Fluency: fl, Tone: 50, TermMatch: 100,
			})
			if !valid[res.Decision] {
				t.Fatalf("Aggregate(acc=%v, fl=%v) decision = %q", acc, fl, res.Decision)
			}
		}
	}
}

func TestWeightsFromMap(t *testing.T) {
	w, err := scoring.WeightsFromMap(map[string]float64{
		"accuracy": 0.6, "fluency": 0.25, "tone": 0.15, "term_match": 0.1,
	})
	if err != nil {
		t.Fatalf("WeightsFromMap: %v", err)
	}
	if w != scoring.DefaultWeights() {
		t.Errorf("WeightsFromMap = %+v, want defaults", w)
	}
}

func TestWeightsFromMapMissingKey(t *testing.T) {
	_, err := scoring.WeightsFromMap(map[string]float64{
		"accuracy": 0.6, "fluency": 0.25, "tone": 0.15,
	})
	if !errors.Is(err, scoring.ErrConfig) {
		t.Errorf("expected ErrConfig for missing term_match, got %v", err)
	}
}

func TestWeightsFromMapUnknownKey(t *testing.T) {
	_, err := scoring.WeightsFromMap(map[string]float64{
		"accuracy": 0.6, "fluency": 0.25, "tone": 0.15, "term_match": 0.1,
		"speling": 0.2,
	})
	if !errors.Is(err, scoring.ErrConfig) {
		t.Errorf("expected ErrConfig for unknown key, got %v", err)
	}
}

func TestNewAggregatorRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name       string
		weights    scoring.Weights
		thresholds scoring.Thresholds
	}{
		{
			name:       "negative weight",
			weights:    scoring.Weights{Accuracy: -0.1, Fluency: 0.25, Tone: 0.15, TermMatch: 0.1},
			thresholds: scoring.DefaultThresholds(),
		},
		{
			name:       "inverted thresholds",
			weights:    scoring.DefaultWeights(),
			thresholds: scoring.Thresholds{AcceptAuto: 70, AcceptWithReview: 90},
		},
		{
			name:       "threshold out of range",
			weights:    scoring.DefaultWeights(),
			thresholds: scoring.Thresholds{AcceptAuto: 120, AcceptWithReview: 75},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scoring.NewAggregator(tc.weights, tc.thresholds)
			if !errors.Is(err, scoring.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestDefaultWeightsSumPreserved(t *testing.T) {
	// The legacy weights deliberately sum to 1.10.
	if sum := scoring.DefaultWeights().Sum(); !almostEqual(sum, 1.10) {
		t.Errorf("DefaultWeights().Sum() = %v, want 1.10", sum)
	}
	if sum := scoring.DefaultWeights().Normalize().Sum(); !almostEqual(sum, 1.0) {
		t.Errorf("Normalize().Sum() = %v, want 1.0", sum)
	}
}

func TestMatchRateExactAlways100(t *testing.T) {
	for _, score := range []float64{-10, 0, 42.5, 99, 150} {
		if got := scoring.MatchRateEquivalent(score, scoring.MatchTypeExact); got != 100.0 {
			t.Errorf("MatchRateEquivalent(%v, exact) = %v, want 100", score, got)
		}
	}
}

func TestMatchRateFuzzyRepairBand(t *testing.T) {
	if got := scoring.MatchRateEquivalent(60.0, scoring.MatchTypeFuzzyRepair); got != 75.0 {
		t.Errorf("MatchRateEquivalent(60, fuzzy_repair) = %v, want 75", got)
	}
	if got := scoring.MatchRateEquivalent(120.0, scoring.MatchTypeFuzzyRepair); got != 99.0 {
		t.Errorf("MatchRateEquivalent(120, fuzzy_repair) = %v, want 99", got)
	}
	if got := scoring.MatchRateEquivalent(88.0, scoring.MatchTypeFuzzyRepair); got != 88.0 {
		t.Errorf("MatchRateEquivalent(88, fuzzy_repair) = %v, want 88", got)
	}
}

func TestMatchRateNewTranslationBand(t *testing.T) {
	if got := scoring.MatchRateEquivalent(90.0, scoring.MatchTypeNew); !almostEqual(got, 76.5) {
		t.Errorf("MatchRateEquivalent(90, new) = %v, want 76.5", got)
	}
	if got := scoring.MatchRateEquivalent(120.0, scoring.MatchTypeNew); got != 85.0 {
		t.Errorf("MatchRateEquivalent(120, new) = %v, want 85", got)
	}
	// Unknown match types fall into the new-translation band.
	if got := scoring.MatchRateEquivalent(90.0, scoring.MatchType("machine")); !almostEqual(got, 76.5) {
		t.Errorf("MatchRateEquivalent(90, machine) = %v, want 76.5", got)
	}
}

func TestMatchRateMonotonicPerBand(t *testing.T) {
	for _, mt := range []scoring.MatchType{
		scoring.MatchTypeExact, scoring.MatchTypeFuzzyRepair, scoring.MatchTypeNew,
	} {
		prev := math.Inf(-1)
		for score := -20.0; score <= 140; score += 2.5 {
			got := scoring.MatchRateEquivalent(score, mt)
			if got < prev {
				t.Fatalf("MatchRateEquivalent(%v, %s) = %v decreased from %v",
					score, mt, got, prev)
			}
			prev = got
		}
	}
}
