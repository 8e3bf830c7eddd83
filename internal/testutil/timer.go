// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RecordingTimer implements backoff.Timer without sleeping. Every Start records
// the requested delay; unless the timer is held, it fires immediately.
//
// A held timer never fires on its own, which lets a test cancel a context while
// a retry loop is waiting. Started reports each delay as the loop begins waiting.
type RecordingTimer struct {
	mu      sync.Mutex
	delays  []time.Duration
	held    bool
	c       chan time.Time
	started chan time.Duration
}

var _ backoff.Timer = (*RecordingTimer)(nil)

// NewRecordingTimer returns a timer that fires as soon as it is started.
func NewRecordingTimer() *RecordingTimer {
	return &RecordingTimer{
		c:       make(chan time.Time, 1),
		started: make(chan time.Duration, 64),
	}
}

// NewHeldTimer returns a timer that only fires when Fire is called.
func NewHeldTimer() *RecordingTimer {
	t := NewRecordingTimer()
	t.held = true
	return t
}

// Start implements backoff.Timer.
func (t *RecordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	held := t.held
	t.mu.Unlock()

	select {
	case t.started <- d:
	default:
	}
	if !held {
		t.Fire()
	}
}

// Stop implements backoff.Timer.
func (t *RecordingTimer) Stop() {}

// C implements backoff.Timer.
func (t *RecordingTimer) C() <-chan time.Time { return t.c }

// Fire releases a waiting retry loop.
func (t *RecordingTimer) Fire() {
	select {
	case t.c <- time.Time{}:
	default:
	}
}

// Started delivers each delay passed to Start.
func (t *RecordingTimer) Started() <-chan time.Duration { return t.started }

// Delays returns the delays requested so far, in order.
func (t *RecordingTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.delays)
}
