// Package stats holds small run-time diagnostics: a phase timer in the
// teacher's t0 := time.Now() / fmt.Printf idiom (constructdbg.go:CDBG,
// constructcf.go:CCF). The emitter's per-pass counters live in
// sdbgio (Emitter.Stats), not here.
package stats

import (
	"fmt"
	"time"
)

// Timer tracks elapsed time across named phases, printed in the
// teacher's "[tag] phase used: %v" style on each Lap call.
type Timer struct {
	tag   string
	phase string
	start time.Time
}

// NewTimer starts timing phase under tag (the bracketed log prefix the
// teacher uses, e.g. "CDBG", "CCF").
func NewTimer(tag, phase string) *Timer {
	return &Timer{tag: tag, phase: phase, start: time.Now()}
}

// Lap prints the elapsed time for the current phase and starts timing
// next.
func (t *Timer) Lap(next string) {
	fmt.Printf("[%s] %s used: %v\n", t.tag, t.phase, time.Since(t.start))
	t.phase = next
	t.start = time.Now()
}

// Done prints the elapsed time for the current phase without starting
// a new one.
func (t *Timer) Done() {
	fmt.Printf("[%s] %s used: %v\n", t.tag, t.phase, time.Since(t.start))
}
