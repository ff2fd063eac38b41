// Package stats holds the latency aggregation and progress reporting
// primitives shared by the suite executor and the load generator.
package stats

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRecentWindow is the number of most recent samples retained for
// live display when no explicit window size is given.
const DefaultRecentWindow = 256

// Sample is one recorded operation result.
type Sample struct {
	Success bool
	Elapsed time.Duration
}

// Aggregator collects operation results from any number of concurrent
// writers. The full sample set is retained for exact percentile
// computation at the end of a run; a bounded most-recent window backs the
// live mean so in-flight display never sorts the full set.
//
// Counter reads may trail the most recent write; there is no lock spanning
// the whole aggregator.
type Aggregator struct {
	successCount atomic.Int64
	failureCount atomic.Int64
	closed       atomic.Bool

	mu      sync.Mutex
	samples []Sample
	recent  *ring
}

// NewAggregator returns an Aggregator whose live window holds recentWindow
// samples. A non-positive recentWindow selects DefaultRecentWindow.
func NewAggregator(recentWindow int) *Aggregator {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &Aggregator{
		recent: newRing(recentWindow),
	}
}

// Record appends one sample. After Finalize the sample is dropped
// silently; a late result from an abandoned operation is neither a
// success nor a failure.
func (a *Aggregator) Record(success bool, elapsed time.Duration) {
	if a.closed.Load() {
		return
	}

	if success {
		a.successCount.Add(1)
	} else {
		a.failureCount.Add(1)
	}

	a.mu.Lock()
	a.samples = append(a.samples, Sample{Success: success, Elapsed: elapsed})
	a.recent.add(elapsed)
	a.mu.Unlock()
}

func (a *Aggregator) RecordSuccess(elapsed time.Duration) {
	a.Record(true, elapsed)
}

func (a *Aggregator) RecordFailure(elapsed time.Duration) {
	a.Record(false, elapsed)
}

// Finalize stops the aggregator accepting new samples.
func (a *Aggregator) Finalize() {
	a.closed.Store(true)
}

func (a *Aggregator) SuccessCount() int64 {
	return a.successCount.Load()
}

func (a *Aggregator) FailureCount() int64 {
	return a.failureCount.Load()
}

func (a *Aggregator) Count() int64 {
	return a.successCount.Load() + a.failureCount.Load()
}

// Counts is a point-in-time view of the aggregate counters plus the live
// mean latency over the recent window.
type Counts struct {
	Count        int64
	SuccessCount int64
	FailureCount int64
	SuccessRate  float64
	MeanLatency  time.Duration
}

// Snapshot returns the current counters and the recent-window mean. The
// values may be slightly stale relative to in-flight writers.
func (a *Aggregator) Snapshot() Counts {
	success := a.successCount.Load()
	failure := a.failureCount.Load()

	a.mu.Lock()
	mean := a.recent.mean()
	a.mu.Unlock()

	c := Counts{
		Count:        success + failure,
		SuccessCount: success,
		FailureCount: failure,
		MeanLatency:  mean,
	}
	if c.Count > 0 {
		c.SuccessRate = float64(success) / float64(c.Count)
	}
	return c
}

// Samples returns a copy of every retained sample.
func (a *Aggregator) Samples() []Sample {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Sample, len(a.samples))
	copy(out, a.samples)
	return out
}

// Mean returns the mean latency over the full sample set.
func (a *Aggregator) Mean() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.samples) == 0 {
		return 0
	}

	var sum time.Duration
	for _, s := range a.samples {
		sum += s.Elapsed
	}
	return sum / time.Duration(len(a.samples))
}

// Percentile returns the p-th percentile latency over the full sample set
// using the nearest-rank method. It sorts a copy, so callers should treat
// it as an end-of-run operation.
func (a *Aggregator) Percentile(p int) time.Duration {
	a.mu.Lock()
	sorted := make([]time.Duration, len(a.samples))
	for i, s := range a.samples {
		sorted[i] = s.Elapsed
	}
	a.mu.Unlock()

	slices.Sort(sorted)
	return nearestRank(sorted, p)
}

// nearestRank selects sorted[ceil(p/100 * N) - 1], clamped to the valid
// index range. sorted must be in ascending order.
func nearestRank(sorted []time.Duration, p int) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	idx := int(math.Ceil(float64(p)/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
