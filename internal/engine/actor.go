package engine

import (
	"time"

	"github.com/easeaico/project-pet/internal/clock"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/scheduler"
)

// actor is the session state of one pet. Fields are guarded by Engine.mu,
// except mood and idle which carry their own locks.
type actor struct {
	id   ActorID
	mood *emotion.Tracker
	idle *scheduler.IdleScheduler

	busy bool

	priority      bool
	priorityTimer clock.Timer
	priorityGen   uint64

	dreamTimer  clock.Timer
	dreamGen    uint64
	dreamed     bool
	sleepEffect bool

	stagger clock.Timer
	clicks  []time.Time
}

func (e *Engine) newActor(id ActorID) *actor {
	a := &actor{id: id}
	a.mood = emotion.NewTracker(e.clock, func(m emotion.Mood) {
		e.renderer.MoodChanged(id, m)
	})
	// IdleAfter and SleepAfter run inside Reset, which is only called with e.mu held.
	a.idle = scheduler.NewIdleScheduler(e.clock, scheduler.IdleConfig{
		IdleAfter:  func() time.Duration { return e.cfg.IdleTimeout.Std() },
		SleepAfter: func() time.Duration { return e.cfg.SleepTimeout.Std() },
		Fire:       func(ev scheduler.Event) { e.onIdleEvent(a, ev) },
	})
	return a
}

// stop cancels every timer the actor owns and clears its busy flag.
func (a *actor) stop() {
	a.idle.Stop()
	a.mood.Stop()
	a.priorityTimer = clock.StopTimer(a.priorityTimer)
	a.dreamTimer = clock.StopTimer(a.dreamTimer)
	a.stagger = clock.StopTimer(a.stagger)
	a.busy = false
	a.priority = false
}

func (a *actor) setMood(m emotion.Mood, sticky bool) {
	d := transientMood
	if sticky {
		d = emotion.Sticky
	}
	a.mood.Set(m, d)
}
