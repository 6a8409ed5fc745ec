// Package batch drives the quality-decision pipeline over many translation
// units: it fans units from a MetricSource across a worker pool, calibrates
// and aggregates each one, reports the outcome to the TMS side, and keeps a
// shared progress tracker current.
package batch

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tmgate/tmgate/pkg/calibration"
	"github.com/tmgate/tmgate/pkg/progress"
	"github.com/tmgate/tmgate/pkg/scoring"
)

// RawMetrics are one unit's uncalibrated quality-estimation signals.
type RawMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Fluency   float64 `json:"fluency"`
	Tone      float64 `json:"tone"`
	TermMatch float64 `json:"term_match"`

	Hallucination  bool `json:"hallucination"`
	TermViolations bool `json:"term_violations"`
}

// Unit is one translation unit awaiting a quality decision.
type Unit struct {
	ID        string            `json:"id"`
	Metrics   RawMetrics        `json:"metrics"`
	MatchType scoring.MatchType `json:"match_type"`
}

// MetricSource supplies units to score. Next returns io.EOF when the
// source is exhausted; any other error is counted as a failed unit and the
// driver keeps going.
type MetricSource interface {
	Next(ctx context.Context) (*Unit, error)
}

// Outcome is the scored result for one unit, as reported downstream.
type Outcome struct {
	UnitID        string            `json:"unit_id"`
	WeightedScore float64           `json:"weighted_score"`
	Decision      scoring.Decision  `json:"decision"`
	MatchRate     float64           `json:"match_rate"`
	MatchType     scoring.MatchType `json:"match_type"`
}

// TMSReporter consumes outcomes, typically uploading them to a translation
// management system. A reporter error fails only that unit.
type TMSReporter interface {
	Report(ctx context.Context, outcome Outcome) error
}

// Summary describes a completed (or cancelled) batch run.
type Summary struct {
	Total      int                      `json:"total"`
	Processed  int                      `json:"processed"`
	Statistics map[string]int64         `json:"statistics"`
	Decisions  map[scoring.Decision]int `json:"decisions"`
	Duration   time.Duration            `json:"duration_ns"`
	Rate       float64                  `json:"rate"` // units per second
}

// Driver runs batches. Aggregator and Mappings are read-only during a run,
// so one Driver value can serve concurrent runs; each run gets its own
// Tracker.
type Driver struct {
	Aggregator *scoring.Aggregator
	Mappings   calibration.Set
	Reporter   TMSReporter
	Workers    int
	Logger     *log.Logger
}

// Run scores every unit the source yields, updating tracker once per unit.
// Per-unit failures (source or reporter) are counted into the errors
// statistic and never abort the batch. Cancelling ctx stops the run and
// returns the context error.
func (d *Driver) Run(ctx context.Context, src MetricSource, tracker *progress.Tracker) (*Summary, error) {
	if d.Aggregator == nil {
		return nil, fmt.Errorf("batch driver has no aggregator")
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	workers := d.Workers
	if workers < 1 {
		workers = 1
	}

	tracker.Start()
	started := time.Now()

	units := make(chan *Unit)
	var mu sync.Mutex
	decisions := make(map[scoring.Decision]int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range units {
				decision, err := d.processUnit(ctx, unit)
				if err != nil {
					logger.Printf("unit %s: %v", unit.ID, err)
					tracker.Update(1, map[string]int64{progress.StatErrors: 1})
					continue
				}
				mu.Lock()
				decisions[decision]++
				mu.Unlock()
				tracker.Update(1, map[string]int64{statKey(unit.MatchType): 1})
			}
		}()
	}

	// Feed units until the source is exhausted or the run is cancelled. A
	// source that fails without ever advancing would loop forever, so give
	// up after too many failures in a row.
	const maxConsecutiveSourceErrors = 100
	sourceErrors := 0
	var runErr error
feed:
	for {
		unit, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			logger.Printf("metric source: %v", err)
			tracker.Update(1, map[string]int64{progress.StatErrors: 1})
			sourceErrors++
			if sourceErrors >= maxConsecutiveSourceErrors {
				runErr = fmt.Errorf("metric source failed %d times in a row: %w",
					sourceErrors, err)
				break
			}
			continue
		}
		sourceErrors = 0
		select {
		case units <- unit:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(units)
	wg.Wait()

	snap := tracker.Progress()
	summary := &Summary{
		Total:      snap.Total,
		Processed:  snap.Processed,
		Statistics: snap.Statistics,
		Decisions:  decisions,
		Duration:   time.Since(started),
	}
	if secs := summary.Duration.Seconds(); secs > 0 {
		summary.Rate = float64(summary.Processed) / secs
	}
	return summary, runErr
}

func (d *Driver) processUnit(ctx context.Context, unit *Unit) (scoring.Decision, error) {
	result := d.Aggregator.Aggregate(scoring.MetricScores{
		Accuracy:       d.Mappings.Apply("accuracy", unit.Metrics.Accuracy),
		Fluency:        d.Mappings.Apply("fluency", unit.Metrics.Fluency),
		Tone:           d.Mappings.Apply("tone", unit.Metrics.Tone),
		TermMatch:      d.Mappings.Apply("term_match", unit.Metrics.TermMatch),
		Hallucination:  unit.Metrics.Hallucination,
		TermViolations: unit.Metrics.TermViolations,
	})

	if d.Reporter != nil {
		outcome := Outcome{
			UnitID:        unit.ID,
			WeightedScore: result.WeightedScore,
			Decision:      result.Decision,
			MatchRate:     scoring.MatchRateEquivalent(result.WeightedScore, unit.MatchType),
			MatchType:     unit.MatchType,
		}
		if err := d.Reporter.Report(ctx, outcome); err != nil {
			return "", fmt.Errorf("reporting outcome: %w", err)
		}
	}
	return result.Decision, nil
}

func statKey(mt scoring.MatchType) string {
	switch mt {
	case scoring.MatchTypeExact:
		return progress.StatExactMatches
	case scoring.MatchTypeFuzzyRepair:
		return progress.StatFuzzyRepairs
	default:
		return progress.StatNewTranslations
	}
}
