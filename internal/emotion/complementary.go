package emotion

import "math/rand/v2"

// complementTable maps the responding pet's mood to moods the other pet may show.
var complementTable = map[Mood][]Mood{
	MoodHappy:     {MoodHappy, MoodExcited, MoodShy},
	MoodSad:       {MoodSad, MoodNervous, MoodShy},
	MoodExcited:   {MoodExcited, MoodHappy, MoodSurprised},
	MoodSurprised: {MoodSurprised, MoodExcited, MoodNervous},
	MoodNervous:   {MoodNervous, MoodConfident, MoodShy},
	MoodConfident: {MoodConfident, MoodHappy, MoodShy},
	MoodShy:       {MoodShy, MoodHappy, MoodExcited},
	MoodAngry:     {MoodNervous, MoodSurprised, MoodAngry},
}

// Complement picks a mood for the non-responding pet. It returns false when the
// responding mood has no counterpart, such as idle or sleeping.
func Complement(m Mood, rng *rand.Rand) (Mood, bool) {
	options, ok := complementTable[m]
	if !ok || len(options) == 0 {
		return "", false
	}
	return options[rng.IntN(len(options))], true
}
