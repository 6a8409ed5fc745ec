// Package calibration fits and applies monotonic mappings that align raw
// machine-translation quality signals with human judgment. A Mapping is fit
// offline by isotonic regression over labeled (raw, human) pairs and then
// shared read-only across any number of concurrent scoring workers.
package calibration

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCalibration reports unusable calibration input. All fitting and
// validation failures wrap this sentinel.
var ErrCalibration = errors.New("calibration error")

// Mapping is an immutable piecewise monotonic function from a raw metric
// value to a human-aligned score. X is ascending, Y is non-decreasing, and
// the two are equal length. Lookups outside [X[0], X[n-1]] clip to the end
// values; between breakpoints the mapping interpolates linearly.
type Mapping struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Validate checks the breakpoint invariants. A Mapping loaded from an
// artifact must be validated before use.
func (m *Mapping) Validate() error {
	if len(m.X) == 0 || len(m.X) != len(m.Y) {
		return fmt.Errorf("%w: breakpoint arrays have lengths %d and %d",
			ErrCalibration, len(m.X), len(m.Y))
	}
	for i := 1; i < len(m.X); i++ {
		if m.X[i] <= m.X[i-1] {
			return fmt.Errorf("%w: x thresholds not strictly ascending at index %d",
				ErrCalibration, i)
		}
		if m.Y[i] < m.Y[i-1] {
			return fmt.Errorf("%w: y values decrease at index %d", ErrCalibration, i)
		}
	}
	return nil
}

// Apply maps a raw metric value to its calibrated score. It is monotonic
// non-decreasing over the full real line and safe for concurrent use.
func (m *Mapping) Apply(raw float64) float64 {
	n := len(m.X)
	if n == 0 {
		return raw
	}
	if raw <= m.X[0] {
		return m.Y[0]
	}
	if raw >= m.X[n-1] {
		return m.Y[n-1]
	}

	// Index of the first threshold strictly greater than raw; the enclosing
	// segment is [i-1, i].
	i := sort.SearchFloat64s(m.X, raw)
	if m.X[i] == raw {
		return m.Y[i]
	}
	x0, x1 := m.X[i-1], m.X[i]
	y0, y1 := m.Y[i-1], m.Y[i]
	return y0 + (y1-y0)*(raw-x0)/(x1-x0)
}
