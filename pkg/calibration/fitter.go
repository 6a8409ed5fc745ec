package calibration

import (
	"context"
	"fmt"
	"sort"
)

// How many PAV merge steps run between cancellation checks. Fitting is
// O(n) but production calibration sets can be large enough that callers
// want a timeout.
const cancelCheckInterval = 4096

// Fit computes the isotonic regression of humanScores on rawValues: the
// non-decreasing step set minimizing sum-of-squares error, via
// pool-adjacent-violators. It requires at least two pairs and at least two
// distinct raw values, and returns only the breakpoints needed to
// reconstruct the function, never the training set. Fit is pure; persisting
// the result is the caller's concern.
func Fit(ctx context.Context, metric string, rawValues, humanScores []float64) (*Mapping, error) {
	if len(rawValues) != len(humanScores) {
		return nil, fmt.Errorf("%w: metric %q has %d raw values but %d human scores",
			ErrCalibration, metric, len(rawValues), len(humanScores))
	}
	if len(rawValues) < 2 {
		return nil, fmt.Errorf("%w: metric %q has %d labeled pairs, need at least 2",
			ErrCalibration, metric, len(rawValues))
	}

	// Sort pairs by raw value and pool duplicate raw values into weighted
	// means so x thresholds come out strictly ascending.
	type pair struct{ x, y float64 }
	pairs := make([]pair, len(rawValues))
	for i := range rawValues {
		pairs[i] = pair{rawValues[i], humanScores[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	type block struct {
		x      float64
		sumY   float64
		weight float64
	}
	var blocks []block
	for _, p := range pairs {
		if n := len(blocks); n > 0 && blocks[n-1].x == p.x {
			blocks[n-1].sumY += p.y
			blocks[n-1].weight++
			continue
		}
		blocks = append(blocks, block{x: p.x, sumY: p.y, weight: 1})
	}
	if len(blocks) < 2 {
		return nil, fmt.Errorf("%w: metric %q has no variation in raw values",
			ErrCalibration, metric)
	}

	// Pool adjacent violators: merge neighbors whose means decrease until
	// the sequence of block means is non-decreasing.
	type pooled struct {
		minX, maxX float64
		sumY       float64
		weight     float64
	}
	mean := func(p pooled) float64 { return p.sumY / p.weight }

	var steps int
	var stack []pooled
	for _, b := range blocks {
		cur := pooled{minX: b.x, maxX: b.x, sumY: b.sumY, weight: b.weight}
		for len(stack) > 0 && mean(stack[len(stack)-1]) > mean(cur) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cur = pooled{
				minX:   top.minX,
				maxX:   cur.maxX,
				sumY:   top.sumY + cur.sumY,
				weight: top.weight + cur.weight,
			}
			steps++
			if steps%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("fitting %q: %w", metric, err)
				}
			}
		}
		stack = append(stack, cur)
	}

	// Emit breakpoints: each pooled block contributes its boundary x values
	// at the block mean. Interior points of a constant run add nothing to
	// the interpolant, so only endpoints are kept.
	m := &Mapping{}
	for _, p := range stack {
		y := mean(p)
		m.X = append(m.X, p.minX)
		m.Y = append(m.Y, y)
		if p.maxX != p.minX {
			m.X = append(m.X, p.maxX)
			m.Y = append(m.Y, y)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("fitting %q: %w", metric, err)
	}
	return m, nil
}
