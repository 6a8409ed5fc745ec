package scoring

import (
	"errors"
	"fmt"
)

// ErrConfig reports an invalid aggregator configuration. All construction
// failures wrap this sentinel so callers can match with errors.Is.
var ErrConfig = errors.New("invalid scoring configuration")

// Weights holds the per-metric aggregation weights. The historical default
// weights sum to 1.10, not 1.0, so a weighted score can exceed 100 before
// penalties; that arithmetic is preserved deliberately. Callers who want a
// unit-sum configuration can call Normalize.
type Weights struct {
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Fluency   float64 `json:"fluency" yaml:"fluency"`
	Tone      float64 `json:"tone" yaml:"tone"`
	TermMatch float64 `json:"term_match" yaml:"term_match"`
}

// DefaultWeights returns the legacy default weights.
func DefaultWeights() Weights {
	return Weights{
		Accuracy:  0.6,
		Fluency:   0.25,
		Tone:      0.15,
		TermMatch: 0.1,
	}
}

// requiredWeightKeys is the exact set of metric keys an open weights map
// must provide.
var requiredWeightKeys = []string{"accuracy", "fluency", "tone", "term_match"}

// WeightsFromMap builds Weights from an open metric-name keyed map, as read
// from a config file. Every required key must be present; unknown keys are
// rejected so typos surface at construction time rather than silently
// dropping a metric's contribution.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	for _, key := range requiredWeightKeys {
		if _, ok := m[key]; !ok {
			return Weights{}, fmt.Errorf("%w: weight %q missing", ErrConfig, key)
		}
	}
	for key := range m {
		known := false
		for _, k := range requiredWeightKeys {
			if key == k {
				known = true
				break
			}
		}
		if !known {
			return Weights{}, fmt.Errorf("%w: unknown weight key %q", ErrConfig, key)
		}
	}
	return Weights{
		Accuracy:  m["accuracy"],
		Fluency:   m["fluency"],
		Tone:      m["tone"],
		TermMatch: m["term_match"],
	}, nil
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Accuracy + w.Fluency + w.Tone + w.TermMatch
}

// Normalize returns a copy of w scaled so the weights sum to 1.0.
// Normalizing changes every score the aggregator produces; it is opt-in.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum == 0 {
		return w
	}
	return Weights{
		Accuracy:  w.Accuracy / sum,
		Fluency:   w.Fluency / sum,
		Tone:      w.Tone / sum,
		TermMatch: w.TermMatch / sum,
	}
}

func (w Weights) validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"accuracy", w.Accuracy},
		{"fluency", w.Fluency},
		{"tone", w.Tone},
		{"term_match", w.TermMatch},
	} {
		if f.value < 0 {
			return fmt.Errorf("%w: weight %q is negative (%g)", ErrConfig, f.name, f.value)
		}
	}
	return nil
}

// Thresholds holds the numeric decision boundaries. AcceptAuto must be
// greater than or equal to AcceptWithReview; needs_human_revision is the
// fallback below both, not a threshold of its own.
type Thresholds struct {
	AcceptAuto       float64 `json:"accept_auto" yaml:"accept_auto"`
	AcceptWithReview float64 `json:"accept_with_review" yaml:"accept_with_review"`
}

// DefaultThresholds returns the default decision boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AcceptAuto:       90,
		AcceptWithReview: 75,
	}
}

func (t Thresholds) validate() error {
	if t.AcceptAuto < 0 || t.AcceptAuto > 100 {
		return fmt.Errorf("%w: accept_auto %g outside [0,100]", ErrConfig, t.AcceptAuto)
	}
	if t.AcceptWithReview < 0 || t.AcceptWithReview > 100 {
		return fmt.Errorf("%w: accept_with_review %g outside [0,100]", ErrConfig, t.AcceptWithReview)
	}
	if t.AcceptAuto < t.AcceptWithReview {
		return fmt.Errorf("%w: accept_auto (%g) below accept_with_review (%g)",
			ErrConfig, t.AcceptAuto, t.AcceptWithReview)
	}
	return nil
}
