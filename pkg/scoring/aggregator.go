package scoring

// Penalty factors applied to the weighted score when a quality-estimation
// flag is set. They compose multiplicatively, hallucination first.
const (
	hallucinationPenalty  = 0.25
	termViolationsPenalty = 0.85
)

// Aggregator turns calibrated per-metric scores into a weighted confidence
// score and a routing decision. Its configuration is immutable after
// construction, so Aggregate is safe to call from any number of concurrent
// workers without locking.
type Aggregator struct {
	weights    Weights
	thresholds Thresholds
}

// NewAggregator creates an Aggregator, validating the configuration up
// front so no unit is processed against a broken setup.
func NewAggregator(weights Weights, thresholds Thresholds) (*Aggregator, error) {
	if err := weights.validate(); err != nil {
		return nil, err
	}
	if err := thresholds.validate(); err != nil {
		return nil, err
	}
	return &Aggregator{weights: weights, thresholds: thresholds}, nil
}

// Weights returns the aggregator's weight configuration.
func (a *Aggregator) Weights() Weights { return a.weights }

// Thresholds returns the aggregator's decision boundaries.
func (a *Aggregator) Thresholds() Thresholds { return a.thresholds }

// Aggregate computes the weighted confidence score for one unit and routes
// it. Penalties apply in a fixed order regardless of which flags are set:
// hallucination multiplies the score by 0.25, then term violations by 0.85,
// composing to 0.2125 when both are raised. Either flag forces
// needs_human_revision even if the penalized score would clear accept_auto.
func (a *Aggregator) Aggregate(m MetricScores) Result {
	weighted := a.weights.Accuracy*m.Accuracy +
		a.weights.Fluency*m.Fluency +
		a.weights.Tone*m.Tone +
		a.weights.TermMatch*m.TermMatch

	if m.Hallucination {
		weighted *= hallucinationPenalty
	}
	if m.TermViolations {
		weighted *= termViolationsPenalty
	}

	return Result{
		WeightedScore: weighted,
		Decision:      a.decide(weighted, m.Hallucination || m.TermViolations),
	}
}

func (a *Aggregator) decide(weighted float64, flagged bool) Decision {
	if flagged {
		return DecisionNeedsHumanRevision
	}
	switch {
	case weighted >= a.thresholds.AcceptAuto:
		return DecisionAcceptAuto
	case weighted >= a.thresholds.AcceptWithReview:
		return DecisionAcceptWithReview
	default:
		return DecisionNeedsHumanRevision
	}
}
