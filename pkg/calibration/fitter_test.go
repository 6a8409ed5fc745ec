package calibration_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/tmgate/tmgate/pkg/calibration"
)

func fit(t *testing.T, raw, human []float64) *calibration.Mapping {
	t.Helper()
	m, err := calibration.Fit(context.Background(), "accuracy", raw, human)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return m
}

func TestFitAlreadyMonotonic(t *testing.T) {
	m := fit(t, []float64{10, 20, 30, 40}, []float64{25, 50, 75, 100})

	// Already non-decreasing data fits exactly.
	for i, raw := range []float64{10, 20, 30, 40} {
		want := []float64{25, 50, 75, 100}[i]
		if got := m.Apply(raw); got != want {
			t.Errorf("Apply(%v) = %v, want %v", raw, got, want)
		}
	}
}

func TestFitPoolsViolators(t *testing.T) {
	// The middle two labels violate monotonicity and must pool to their
	// mean: isotonic fit of (1,2,3,4)->(10, 40, 20, 50) is (10, 30, 30, 50).
	m := fit(t, []float64{1, 2, 3, 4}, []float64{10, 40, 20, 50})

	if got := m.Apply(2); got != 30 {
		t.Errorf("Apply(2) = %v, want 30", got)
	}
	if got := m.Apply(3); got != 30 {
		t.Errorf("Apply(3) = %v, want 30", got)
	}
	if got := m.Apply(1); got != 10 {
		t.Errorf("Apply(1) = %v, want 10", got)
	}
	if got := m.Apply(4); got != 50 {
		t.Errorf("Apply(4) = %v, want 50", got)
	}
}

func TestFitAveragesDuplicateRawValues(t *testing.T) {
	m := fit(t, []float64{1, 1, 2}, []float64{10, 30, 50})

	if got := m.Apply(1); got != 20 {
		t.Errorf("Apply(1) = %v, want 20 (mean of duplicates)", got)
	}
	if got := m.Apply(2); got != 50 {
		t.Errorf("Apply(2) = %v, want 50", got)
	}
}

func TestFitClipsOutsideRange(t *testing.T) {
	m := fit(t, []float64{10, 20}, []float64{40, 80})

	if got := m.Apply(-100); got != 40 {
		t.Errorf("Apply(-100) = %v, want 40", got)
	}
	if got := m.Apply(1000); got != 80 {
		t.Errorf("Apply(1000) = %v, want 80", got)
	}
}

func TestApplyInterpolatesBetweenBreakpoints(t *testing.T) {
	m := fit(t, []float64{0, 10}, []float64{0, 100})

	if got := m.Apply(2.5); got != 25 {
		t.Errorf("Apply(2.5) = %v, want 25", got)
	}
}

func TestFitRejectsInsufficientData(t *testing.T) {
	cases := []struct {
		name  string
		raw   []float64
		human []float64
	}{
		{"empty", nil, nil},
		{"single pair", []float64{1}, []float64{50}},
		{"mismatched lengths", []float64{1, 2}, []float64{50}},
		{"no variation", []float64{5, 5, 5}, []float64{10, 20, 30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calibration.Fit(context.Background(), "m", tc.raw, tc.human)
			if !errors.Is(err, calibration.ErrCalibration) {
				t.Errorf("expected ErrCalibration, got %v", err)
			}
		})
	}
}

func TestFitRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A long strictly-decreasing sequence forces a merge per element, so
	// the fitter hits its cancellation checks.
	n := 100_000
	raw := make([]float64, n)
	human := make([]float64, n)
	for i := 0; i < n; i++ {
		raw[i] = float64(i)
		human[i] = float64(n - i)
	}

	_, err := calibration.Fit(ctx, "accuracy", raw, human)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestApplyMonotonicOnNoisyData(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 500
	raw := make([]float64, n)
	human := make([]float64, n)
	for i := 0; i < n; i++ {
		raw[i] = rng.Float64() * 100
		// Noisy but upward-trending labels.
		human[i] = raw[i]*0.8 + rng.NormFloat64()*15
	}

	m := fit(t, raw, human)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	prev := math.Inf(-1)
	for x := -20.0; x <= 120; x += 0.25 {
		got := m.Apply(x)
		if got < prev {
			t.Fatalf("Apply(%v) = %v decreased from %v", x, got, prev)
		}
		prev = got
	}
}

func TestFitDropsRedundantBreakpoints(t *testing.T) {
	// A fully pooled fit (constant output) keeps only the run endpoints.
	m := fit(t, []float64{1, 2, 3, 4, 5}, []float64{50, 40, 30, 20, 10})

	if len(m.X) != 2 {
		t.Fatalf("breakpoint count = %d, want 2 (got x=%v y=%v)", len(m.X), m.X, m.Y)
	}
	if m.Y[0] != 30 || m.Y[1] != 30 {
		t.Errorf("pooled value = %v, want 30", m.Y)
	}
}
