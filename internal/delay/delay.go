// Package delay provides one-shot timers, debouncing and startup delays.
package delay

import (
	"math/rand"
	"sync"
	"time"
)

// RangeGenerator generates random delays within a millisecond range.
type RangeGenerator struct {
	minMs int
	maxMs int
}

// NewRangeGenerator creates a RangeGenerator with the specified range.
func NewRangeGenerator(minMs, maxMs int) *RangeGenerator {
	if maxMs < minMs {
		maxMs = minMs
	}
	return &RangeGenerator{
		minMs: minMs,
		maxMs: maxMs,
	}
}

// Generate generates a random delay duration within the configured range.
func (g *RangeGenerator) Generate() time.Duration {
	if g.minMs == g.maxMs {
		return time.Duration(g.minMs) * time.Millisecond
	}
	rangeSize := g.maxMs - g.minMs + 1
	randomMs := g.minMs + rand.Intn(rangeSize)
	return time.Duration(randomMs) * time.Millisecond
}

// StartupDelay picks the wait before the first placement pass. Slower
// devices get a wider range so layout can settle before coins appear.
func StartupDelay(minMs, maxMs int) time.Duration {
	if maxMs <= 0 {
		return 0
	}
	return NewRangeGenerator(minMs, maxMs).Generate()
}

// Timer runs a callback once after a delay unless it is canceled first.
type Timer struct {
	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending bool
}

// NewTimer creates an idle Timer.
func NewTimer() *Timer {
	return &Timer{}
}

// Schedule arms the timer, replacing any pending callback.
func (t *Timer) Schedule(delay time.Duration, callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.pending = true
	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if !t.pending || t.seq != seq {
			t.mu.Unlock()
			return
		}
		t.pending = false
		t.mu.Unlock()

		if callback != nil {
			callback()
		}
	})
}

// Cancel stops any pending callback.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Pending reports whether a callback is waiting to run.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Debouncer runs its callback once the trigger has been quiet for the
// configured period.
type Debouncer struct {
	quiet time.Duration
	timer *Timer
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet: quiet,
		timer: NewTimer(),
	}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger(callback func()) {
	d.timer.Schedule(d.quiet, callback)
}

// Cancel drops a pending callback.
func (d *Debouncer) Cancel() {
	d.timer.Cancel()
}

// Pending reports whether a callback is waiting for the quiet period.
func (d *Debouncer) Pending() bool {
	return d.timer.Pending()
}
