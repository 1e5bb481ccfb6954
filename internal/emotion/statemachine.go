package emotion

import (
	"sync"
	"time"

	"github.com/easeaico/project-pet/internal/clock"
)

// Sticky keeps a mood until it is explicitly changed.
const Sticky time.Duration = 0

// Tracker owns one pet's current mood and its auto-revert timer.
// It is the only writer of that mood.
type Tracker struct {
	clock    clock.Clock
	onChange func(Mood)

	mu      sync.Mutex
	current Mood
	version uint64
	revert  clock.Timer
}

// NewTracker returns a Tracker starting at idle. onChange may be nil. It is
// called with the tracker's lock held, in the order the changes happen, and
// must not call back into the tracker.
func NewTracker(c clock.Clock, onChange func(Mood)) *Tracker {
	return &Tracker{
		clock:    c,
		onChange: onChange,
		current:  MoodIdle,
	}
}

// Current returns the current mood.
func (t *Tracker) Current() Mood {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set changes the mood. A positive d schedules a revert to idle that only
// applies if no other Set happened in between; Sticky never reverts.
func (t *Tracker) Set(mood Mood, d time.Duration) {
	t.mu.Lock()
	t.revert = clock.StopTimer(t.revert)
	t.version++
	t.current = mood
	if d > 0 && mood != MoodIdle {
		version := t.version
		t.revert = t.clock.AfterFunc(d, func() {
			t.revertIfUnchanged(version)
		})
	}
	if t.onChange != nil {
		t.onChange(mood)
	}
	t.mu.Unlock()
}

// Stop cancels a pending revert.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revert = clock.StopTimer(t.revert)
}

func (t *Tracker) revertIfUnchanged(version uint64) {
	t.mu.Lock()
	if t.version != version {
		t.mu.Unlock()
		return
	}
	t.version++
	t.current = MoodIdle
	t.revert = nil
	if t.onChange != nil {
		t.onChange(MoodIdle)
	}
	t.mu.Unlock()
}
