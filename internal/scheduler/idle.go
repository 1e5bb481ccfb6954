// Package scheduler runs the debounced idle/sleep timers and periodic pet ticks.
package scheduler

import (
	"sync"
	"time"

	"github.com/easeaico/project-pet/internal/clock"
)

// Event is what an idle scheduler emits.
type Event string

const (
	EventIdle  Event = "idle"
	EventSleep Event = "sleeping"
)

// IdleConfig configures an IdleScheduler.
type IdleConfig struct {
	// IdleAfter and SleepAfter are read on every Reset so settings changes apply to the next cycle.
	IdleAfter  func() time.Duration
	SleepAfter func() time.Duration
	// Guard suppresses firing when it returns false. May be nil.
	Guard func() bool
	// Fire receives the event.
	Fire func(Event)
}

// IdleScheduler owns one pet's idle and sleep timers.
type IdleScheduler struct {
	clock clock.Clock
	cfg   IdleConfig

	mu      sync.Mutex
	gen     uint64
	idle    clock.Timer
	sleep   clock.Timer
	stopped bool
}

// NewIdleScheduler returns a scheduler with no timers armed.
func NewIdleScheduler(c clock.Clock, cfg IdleConfig) *IdleScheduler {
	return &IdleScheduler{clock: c, cfg: cfg}
}

// Reset cancels both timers and arms them again from now.
func (s *IdleScheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = clock.StopTimer(s.idle)
	s.sleep = clock.StopTimer(s.sleep)
	// A callback already running when Stop is called sees a newer gen and exits.
	s.gen++
	if s.stopped {
		return
	}
	gen := s.gen
	if d := s.cfg.IdleAfter(); d > 0 {
		s.idle = s.clock.AfterFunc(d, func() { s.fire(EventIdle, gen) })
	}
	if d := s.cfg.SleepAfter(); d > 0 {
		s.sleep = s.clock.AfterFunc(d, func() { s.fire(EventSleep, gen) })
	}
}

// Stop cancels both timers permanently.
func (s *IdleScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.gen++
	s.idle = clock.StopTimer(s.idle)
	s.sleep = clock.StopTimer(s.sleep)
}

func (s *IdleScheduler) fire(ev Event, gen uint64) {
	s.mu.Lock()
	if s.stopped || s.gen != gen {
		s.mu.Unlock()
		return
	}
	switch ev {
	case EventIdle:
		s.idle = nil
	case EventSleep:
		s.sleep = nil
	}
	s.mu.Unlock()

	if s.cfg.Guard != nil && !s.cfg.Guard() {
		return
	}
	s.cfg.Fire(ev)
}
