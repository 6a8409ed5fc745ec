// Package progress tracks shared batch-run progress across concurrent
// workers: processed/error counters, a fixed set of outcome statistics, and
// derived throughput and ETA.
package progress

import (
	"log"
	"sync"
	"time"
)

// The fixed statistic keys a tracker accumulates. Update silently ignores
// anything else.
const (
	StatExactMatches    = "exact_matches"
	StatFuzzyRepairs    = "fuzzy_repairs"
	StatNewTranslations = "new_translations"
	StatErrors          = "errors"
)

var knownStats = []string{
	StatExactMatches, StatFuzzyRepairs, StatNewTranslations, StatErrors,
}

// Snapshot is a point-in-time view of a batch run. Statistics is a copy;
// mutating it does not affect the tracker.
type Snapshot struct {
	Total      int              `json:"total"`
	Processed  int              `json:"processed"`
	Percentage float64          `json:"percentage"`
	Rate       float64          `json:"rate"` // units per second, 0 until measurable
	ETASeconds *float64         `json:"eta_seconds"`
	Statistics map[string]int64 `json:"statistics"`
}

// Observer receives a snapshot after every update. Observers run outside
// the tracker's critical section so a slow observer cannot serialize
// worker throughput, and a panicking observer cannot corrupt tracker state
// or crash the updating worker.
type Observer func(Snapshot)

// Tracker accumulates processed counts and statistics for one batch run.
// It is the only shared mutable state in the pipeline; all methods are safe
// for concurrent use. A tracker is never reset: start a new one per run.
type Tracker struct {
	mu        sync.Mutex
	total     int
	processed int
	stats     map[string]int64
	startTime time.Time
	started   bool

	observer Observer
	logger   *log.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewTracker creates a tracker for a run of total units. Both observer and
// logger may be nil; a nil logger falls back to the default logger.
func NewTracker(total int, observer Observer, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	t := &Tracker{
		total:    total,
		stats:    make(map[string]int64, len(knownStats)),
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
	for _, k := range knownStats {
		t.stats[k] = 0
	}
	return t
}

// Start records the run start time. Calling Start again re-records the
// start time only; accumulated counts are kept.
func (t *Tracker) Start() {
	t.mu.Lock()
	t.startTime = t.now()
	t.started = true
	t.mu.Unlock()
}

// Update adds count processed units and merges the given statistics, then
// notifies the observer with the resulting snapshot. Unknown statistic keys
// are ignored.
func (t *Tracker) Update(count int, stats map[string]int64) {
	t.mu.Lock()
	t.processed += count
	for _, k := range knownStats {
		if v, ok := stats[k]; ok {
			t.stats[k] += v
		}
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

func (t *Tracker) notify(snap Snapshot) {
	if t.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Printf("progress observer panic: %v", r)
		}
	}()
	t.observer(snap)
}

// Progress returns the current snapshot. Before Start is called the
// percentage is 0 and the ETA is nil regardless of counts.
func (t *Tracker) Progress() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{
		Total:      t.total,
		Processed:  t.processed,
		Statistics: make(map[string]int64, len(t.stats)),
	}
	for k, v := range t.stats {
		snap.Statistics[k] = v
	}
	if !t.started {
		return snap
	}

	if t.total > 0 {
		snap.Percentage = float64(t.processed) / float64(t.total) * 100
	}
	elapsed := t.now().Sub(t.startTime).Seconds()
	if elapsed > 0 {
		snap.Rate = float64(t.processed) / elapsed
	}
	if snap.Rate > 0 {
		eta := float64(t.total-t.processed) / snap.Rate
		snap.ETASeconds = &eta
	}
	return snap
}

// LogProgress emits the current snapshot to the tracker's logger. It is a
// convenience for batch drivers that poll progress periodically.
func (t *Tracker) LogProgress() {
	snap := t.Progress()
	if snap.ETASeconds != nil {
		t.logger.Printf("progress: %d/%d (%.1f%%), %.1f units/s, ETA %.0fs, errors=%d",
			snap.Processed, snap.Total, snap.Percentage, snap.Rate,
			*snap.ETASeconds, snap.Statistics[StatErrors])
		return
	}
	t.logger.Printf("progress: %d/%d (%.1f%%), errors=%d",
		snap.Processed, snap.Total, snap.Percentage, snap.Statistics[StatErrors])
}
