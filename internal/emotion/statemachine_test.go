package emotion

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/easeaico/project-pet/internal/clock"
)

func TestTrackerRevertsToIdleAfterDuration(t *testing.T) {
	for _, mood := range All {
		if mood == MoodIdle {
			continue
		}
		c := clock.NewFake(time.Unix(0, 0))
		tracker := NewTracker(c, nil)

		tracker.Set(mood, 2*time.Second)
		c.Advance(1999 * time.Millisecond)
		if got := tracker.Current(); got != mood {
			t.Fatalf("%s: reverted early to %s", mood, got)
		}
		c.Advance(time.Millisecond)
		if got := tracker.Current(); got != MoodIdle {
			t.Fatalf("%s: expected idle after duration, got %s", mood, got)
		}
	}
}

func TestTrackerDoesNotRevertWhenOverwritten(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	tracker := NewTracker(c, nil)

	tracker.Set(MoodHappy, 2*time.Second)
	c.Advance(time.Second)
	tracker.Set(MoodSleeping, Sticky)
	c.Advance(time.Minute)

	if got := tracker.Current(); got != MoodSleeping {
		t.Fatalf("expected sleeping to survive the old revert, got %s", got)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no orphaned timers, got %d", c.Pending())
	}
}

func TestTrackerSameMoodRestartsRevert(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	tracker := NewTracker(c, nil)

	tracker.Set(MoodHappy, 2*time.Second)
	c.Advance(1500 * time.Millisecond)
	tracker.Set(MoodHappy, 2*time.Second)
	c.Advance(1500 * time.Millisecond)
	if got := tracker.Current(); got != MoodHappy {
		t.Fatalf("expected second set to extend happy, got %s", got)
	}
	c.Advance(500 * time.Millisecond)
	if got := tracker.Current(); got != MoodIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestTrackerNotifiesChanges(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	var seen []Mood
	tracker := NewTracker(c, func(m Mood) { seen = append(seen, m) })

	tracker.Set(MoodAngry, time.Second)
	c.Advance(time.Second)

	if len(seen) != 2 || seen[0] != MoodAngry || seen[1] != MoodIdle {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestTrackerLastNotificationMatchesCurrent(t *testing.T) {
	for i := 0; i < 50; i++ {
		var mu sync.Mutex
		var last Mood
		tracker := NewTracker(clock.NewReal(), func(m Mood) {
			mu.Lock()
			last = m
			mu.Unlock()
		})

		tracker.Set(MoodHappy, time.Microsecond)
		time.Sleep(time.Duration(i%5) * time.Microsecond)
		tracker.Set(MoodDragging, Sticky)
		// Any revert still in flight must be a no-op by now.
		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		got := last
		mu.Unlock()
		if got != tracker.Current() || got != MoodDragging {
			t.Fatalf("iteration %d: renderer saw %s, tracker holds %s", i, got, tracker.Current())
		}
	}
}

func TestComplementStaysInTable(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	allowed := map[Mood]bool{MoodHappy: true, MoodExcited: true, MoodShy: true}
	for i := 0; i < 100; i++ {
		got, ok := Complement(MoodHappy, rng)
		if !ok || !allowed[got] {
			t.Fatalf("unexpected complement %q (ok=%v)", got, ok)
		}
	}
	if _, ok := Complement(MoodSleeping, rng); ok {
		t.Fatalf("sleeping should have no complement")
	}
}

func TestInferMoodPriority(t *testing.T) {
	cases := []struct {
		text string
		want Mood
		ok   bool
	}{
		{"화나! 근데 좋아", MoodAngry, true},
		{"부끄럽지만 행복해", MoodShy, true},
		{"I am so SAD today", MoodSad, true},
		{"wow look at that", MoodSurprised, true},
		{"I made you some tea", "", false},
		{"What a crystal clear night", "", false},
		{"these gloves are warm", "", false},
		{"I'm so mad at you", MoodAngry, true},
		{"stop crying, it's fine", MoodSad, true},
		{"I love it!", MoodHappy, true},
		{"I can't wait!", MoodExcited, true},
		{"그냥 그래", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := InferMood(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("InferMood(%q) = %q, %v; want %q, %v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseEmotive(t *testing.T) {
	if m, ok := ParseEmotive(" Happy "); !ok || m != MoodHappy {
		t.Fatalf("expected happy, got %q %v", m, ok)
	}
	for _, raw := range []string{"idle", "sleeping", "dragging", "thinking", "bogus"} {
		if _, ok := ParseEmotive(raw); ok {
			t.Fatalf("%q must not be accepted as a tag mood", raw)
		}
	}
}
