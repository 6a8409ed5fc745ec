package batch

import (
	"context"
	"io"
)

// SliceSource is a MetricSource over an in-memory set of units, used for
// API-submitted batches and tests.
type SliceSource struct {
	units []Unit
	i     int
}

// NewSliceSource wraps units in a MetricSource.
func NewSliceSource(units []Unit) *SliceSource {
	return &SliceSource{units: units}
}

// Next returns the next unit or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.i >= len(s.units) {
		return nil, io.EOF
	}
	u := s.units[s.i]
	s.i++
	return &u, nil
}
