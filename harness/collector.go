package harness

import (
	"time"

	"github.com/tradeharness/tradeharness/stats"
)

// CaseResult pairs a test identifier with its retained outcome.
type CaseResult struct {
	ID      string
	Outcome Outcome
}

// ResultCollector merges per-test outcomes into the final RunSummary.
// It is single-writer, matching the sequential executor that feeds it.
type ResultCollector struct {
	runID string
	start time.Time
	total int

	passed, failed, skipped, errored int

	results  []CaseResult
	warnings []Warning

	agg *stats.Aggregator
}

func NewResultCollector(runID string, total int, agg *stats.Aggregator) *ResultCollector {
	if runID == "" {
		runID = stats.NewRunID()
	}
	return &ResultCollector{
		runID: runID,
		start: time.Now(),
		total: total,
		agg:   agg,
	}
}

func (c *ResultCollector) RunID() string { return c.runID }

func (c *ResultCollector) Add(id string, out Outcome) {
	c.results = append(c.results, CaseResult{ID: id, Outcome: out})

	switch out.Status {
	case StatusPassed:
		c.passed++
	case StatusFailed:
		c.failed++
	case StatusSkipped:
		c.skipped++
	case StatusErrored:
		c.errored++
	}
}

func (c *ResultCollector) AddWarnings(ws ...Warning) {
	c.warnings = append(c.warnings, ws...)
}

// Counts returns the outcome tallies so far.
func (c *ResultCollector) Counts() (passed, failed, skipped, errored int) {
	return c.passed, c.failed, c.skipped, c.errored
}

func (c *ResultCollector) Completed() int {
	return len(c.results)
}

// Snapshot builds the progress view of the run so far.
func (c *ResultCollector) Snapshot(message string) stats.ProgressSnapshot {
	live := c.agg.Snapshot()

	completed := len(c.results)
	snap := stats.ProgressSnapshot{
		RunID:       c.runID,
		Completed:   completed,
		Total:       c.total,
		Passed:      c.passed,
		Failed:      c.failed + c.errored,
		Skipped:     c.skipped,
		MeanLatency: live.MeanLatency,
		Message:     message,
	}
	if completed > 0 {
		snap.SuccessRate = float64(c.passed) / float64(completed)
	}
	return snap
}

// Summarize finalizes the aggregator and produces the run summary.
// runErr, when non-nil, marks the summary as partial.
func (c *ResultCollector) Summarize(runErr error) *stats.RunSummary {
	summary := stats.SummaryFromAggregator(c.runID, c.agg, time.Since(c.start))

	summary.Total = c.total
	summary.Passed = c.passed
	summary.Failed = c.failed
	summary.Skipped = c.skipped
	summary.Errored = c.errored
	summary.Err = runErr

	for _, w := range c.warnings {
		summary.Warnings = append(summary.Warnings, w.String())
	}
	return summary
}

// Results returns the retained outcome of every completed case in
// execution order.
func (c *ResultCollector) Results() []CaseResult {
	out := make([]CaseResult, len(c.results))
	copy(out, c.results)
	return out
}
