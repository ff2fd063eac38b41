package stats

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// RunSummary is the final aggregate of a run: totals, wall time, the
// retained sample set, and any non-fatal warnings. Rates and percentiles
// are derived on demand from the samples rather than stored.
//
// A summary is produced exactly once per run and is read-only thereafter.
type RunSummary struct {
	RunID string

	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errored int

	Elapsed  time.Duration
	Warnings []string

	// Err carries a harness-level fatal error when the run ended early.
	// The counts above then cover whatever completed before the abort.
	Err error

	samples []Sample
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SummaryFromAggregator finalizes agg and builds a summary whose counts
// are the aggregator's operation counters. The suite executor overwrites
// the counts with per-test results afterwards; the load generator uses
// them as-is.
func SummaryFromAggregator(runID string, agg *Aggregator, elapsed time.Duration) *RunSummary {
	agg.Finalize()

	return &RunSummary{
		RunID:   runID,
		Total:   int(agg.Count()),
		Passed:  int(agg.SuccessCount()),
		Failed:  int(agg.FailureCount()),
		Elapsed: elapsed,
		samples: agg.Samples(),
	}
}

// Samples returns a copy of the run's retained samples.
func (s *RunSummary) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// SuccessRate returns passed over total in [0, 1].
func (s *RunSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// MeanLatency returns the mean over the full sample set.
func (s *RunSummary) MeanLatency() time.Duration {
	if len(s.samples) == 0 {
		return 0
	}

	var sum time.Duration
	for _, sample := range s.samples {
		sum += sample.Elapsed
	}
	return sum / time.Duration(len(s.samples))
}

// Percentile returns the nearest-rank p-th percentile over the full
// sample set.
func (s *RunSummary) Percentile(p int) time.Duration {
	sorted := make([]time.Duration, len(s.samples))
	for i, sample := range s.samples {
		sorted[i] = sample.Elapsed
	}
	slices.Sort(sorted)
	return nearestRank(sorted, p)
}

// Throughput returns successful operations per second of wall-clock time
// since the run started.
func (s *RunSummary) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Passed) / s.Elapsed.Seconds()
}
