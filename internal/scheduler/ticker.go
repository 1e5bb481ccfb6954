package scheduler

import (
	"sync"
	"time"

	"github.com/easeaico/project-pet/internal/clock"
)

// Ticker calls f every interval until stopped. A non-positive interval disables it.
type Ticker struct {
	clock    clock.Clock
	interval func() time.Duration
	f        func()

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
}

// NewTicker starts a ticker.
func NewTicker(c clock.Clock, interval func() time.Duration, f func()) *Ticker {
	t := &Ticker{clock: c, interval: interval, f: f}
	t.mu.Lock()
	t.armLocked()
	t.mu.Unlock()
	return t
}

// Stop cancels the ticker.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.timer = clock.StopTimer(t.timer)
}

func (t *Ticker) armLocked() {
	t.timer = clock.StopTimer(t.timer)
	if t.stopped {
		return
	}
	if d := t.interval(); d > 0 {
		t.timer = t.clock.AfterFunc(d, t.tick)
	}
}

func (t *Ticker) tick() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.f()

	t.mu.Lock()
	t.armLocked()
	t.mu.Unlock()
}
