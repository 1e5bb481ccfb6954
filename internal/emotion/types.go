// Package emotion tracks pet moods and derives moods from model output.
package emotion

import "strings"

// Mood is a pet's visible emotional state.
type Mood string

const (
	MoodIdle      Mood = "idle"
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
	MoodExcited   Mood = "excited"
	MoodSurprised Mood = "surprised"
	MoodNervous   Mood = "nervous"
	MoodConfident Mood = "confident"
	MoodShy       Mood = "shy"
	MoodSleeping  Mood = "sleeping"
	MoodThinking  Mood = "thinking"
	MoodAngry     Mood = "angry"
	MoodDragging  Mood = "dragging"
)

// All lists every mood in declaration order.
var All = []Mood{
	MoodIdle, MoodHappy, MoodSad, MoodExcited, MoodSurprised, MoodNervous,
	MoodConfident, MoodShy, MoodSleeping, MoodThinking, MoodAngry, MoodDragging,
}

// Emotive lists the moods a model may request with a [MOOD:xxx] tag.
var Emotive = []Mood{
	MoodHappy, MoodSad, MoodExcited, MoodSurprised, MoodNervous,
	MoodConfident, MoodShy, MoodAngry,
}

// Valid reports whether m is a known mood.
func Valid(m Mood) bool {
	for _, v := range All {
		if v == m {
			return true
		}
	}
	return false
}

// IsEmotive reports whether m may come from a model response tag.
func IsEmotive(m Mood) bool {
	for _, v := range Emotive {
		if v == m {
			return true
		}
	}
	return false
}

// ParseEmotive normalizes a tag value. It returns false for non-emotive or unknown values.
func ParseEmotive(raw string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(raw)))
	if !IsEmotive(m) {
		return "", false
	}
	return m, true
}
