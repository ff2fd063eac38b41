package stats

import (
	"testing"
	"time"
)

func TestRingKeepsMostRecent(t *testing.T) {
	r := newRing(3)

	if r.len() != 0 {
		t.Fatal("new ring should be empty")
	}
	if r.mean() != 0 {
		t.Fatal("empty ring mean should be zero")
	}

	for _, d := range []time.Duration{1, 2, 3, 4, 5} {
		r.add(d * time.Millisecond)
	}

	if r.len() != 3 {
		t.Fatalf("expected len 3, got %d", r.len())
	}

	// After five adds into capacity three, only 3ms/4ms/5ms remain.
	if got, want := r.mean(), 4*time.Millisecond; got != want {
		t.Fatalf("expected mean %s, got %s", want, got)
	}
}

func TestRingPartialFill(t *testing.T) {
	r := newRing(8)
	r.add(10 * time.Millisecond)
	r.add(20 * time.Millisecond)

	if r.len() != 2 {
		t.Fatalf("expected len 2, got %d", r.len())
	}
	if got, want := r.mean(), 15*time.Millisecond; got != want {
		t.Fatalf("expected mean %s, got %s", want, got)
	}
}
