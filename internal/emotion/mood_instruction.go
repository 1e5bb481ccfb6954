package emotion

// MoodInstruction returns a short behavior guideline for the pet's current mood.
func MoodInstruction(mood Mood) string {
	switch mood {
	case MoodAngry:
		return "You are a little grumpy right now; keep it short and pouty."
	case MoodSad:
		return "You feel down; your tone is quiet and a bit sulky."
	case MoodHappy, MoodExcited:
		return "You are in a great mood; be warm and lively."
	case MoodShy:
		return "You feel bashful; hesitate a little."
	case MoodNervous:
		return "You are on edge; sound a little worried."
	case MoodSleeping:
		return "You were just woken up; sound drowsy."
	default:
		return ""
	}
}
