package stats

import "time"

// ring is a fixed-capacity window over the most recently added durations.
// Once full, each add overwrites the oldest entry.
type ring struct {
	buf  []time.Duration
	next int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{
		buf: make([]time.Duration, capacity),
	}
}

func (r *ring) add(d time.Duration) {
	r.buf[r.next] = d
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

func (r *ring) mean() time.Duration {
	n := r.len()
	if n == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range r.buf[:n] {
		sum += d
	}
	return sum / time.Duration(n)
}
