package stats

import (
	"sync"
	"time"
)

// ProgressSnapshot is a point-in-time, eventually consistent view of an
// in-flight run pushed to subscribed consumers.
type ProgressSnapshot struct {
	RunID       string
	Completed   int
	Total       int
	Passed      int
	Failed      int
	Skipped     int
	SuccessRate float64
	MeanLatency time.Duration
	Message     string
	// Final marks the terminal snapshot of a run. No snapshot follows it.
	Final bool
}

// Percentage returns run completion in [0, 100].
func (s ProgressSnapshot) Percentage() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// ProgressReporter fans snapshots out to any number of subscribed
// consumers. Delivery never blocks the producer: when a consumer's buffer
// is full the oldest buffered snapshot is dropped to make room. Progress
// display is advisory, so a slow console must not stall the engines.
type ProgressReporter struct {
	mu        sync.Mutex
	consumers []chan ProgressSnapshot
	closed    bool
}

func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{}
}

// Subscribe registers a consumer and returns its channel. buffer values
// below 1 are raised to 1 so the final snapshot can always be buffered.
// The channel is closed after the final snapshot is delivered.
func (r *ProgressReporter) Subscribe(buffer int) <-chan ProgressSnapshot {
	if buffer < 1 {
		buffer = 1
	}

	ch := make(chan ProgressSnapshot, buffer)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		close(ch)
		return ch
	}
	r.consumers = append(r.consumers, ch)
	return ch
}

// Report publishes a snapshot to every consumer, dropping the oldest
// buffered snapshot of any consumer that has fallen behind.
func (r *ProgressReporter) Report(s ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	for _, ch := range r.consumers {
		trySend(ch, s)
	}
}

// Close delivers final (with Final forced true) as the terminal snapshot
// and closes every consumer channel. Subsequent Report calls are dropped.
func (r *ProgressReporter) Close(final ProgressSnapshot) {
	final.Final = true

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for _, ch := range r.consumers {
		// The final snapshot must land even on a lagging consumer, so
		// keep evicting until the send succeeds.
		for !trySend(ch, final) {
		}
		close(ch)
	}
	r.consumers = nil
}

// trySend attempts a non-blocking send, evicting the oldest buffered
// snapshot on a full buffer. Reports whether s was delivered.
func trySend(ch chan ProgressSnapshot, s ProgressSnapshot) bool {
	select {
	case ch <- s:
		return true
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- s:
		return true
	default:
		return false
	}
}
