// Package harness implements the dependency-aware test orchestrator: a
// suite registry, a topological orderer over declared dependencies, and a
// sequential executor with per-test timeouts and bounded retries.
package harness

import (
	"context"
	"time"
)

// Action is a test body. It is invoked with a context that is cancelled
// when the attempt's deadline expires; bodies doing I/O should honor it.
type Action func(ctx context.Context) error

// TestCase is one registered test. Cases are immutable once added to a
// Suite.
type TestCase struct {
	// ID is the qualified identifier, e.g. "trading.OrderSuite.SubmitLimitOrder".
	ID          string
	Description string

	Skip       bool
	SkipReason string

	// DependsOn lists prerequisite identifiers. Entries may be loosely
	// qualified as "Suite.Method"; resolution falls back to the short form
	// when no exact match exists.
	DependsOn []string

	Run Action
}

// shortID returns the trailing "Suite.Method" form of id, or "" when id
// has fewer than two segments.
func shortID(id string) string {
	dots := 0
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] != '.' {
			continue
		}
		dots++
		if dots == 2 {
			return id[i+1:]
		}
	}
	return ""
}

// Status is the terminal classification of a test case.
type Status uint8

const (
	StatusPending Status = iota
	StatusRunning
	StatusPassed
	StatusFailed
	StatusSkipped
	// StatusErrored means the harness could not invoke the test at all,
	// as opposed to the test running and failing.
	StatusErrored
)

func (s Status) String() string {
	return []string{
		"pending",
		"running",
		"passed",
		"failed",
		"skipped",
		"errored",
	}[s]
}

// Outcome is the retained result of a test case. A case may be attempted
// several times; only the last attempt's outcome survives.
type Outcome struct {
	Status   Status
	Message  string
	Err      error
	Duration time.Duration
	Attempts int
}
