package chatlog

import "fmt"

// Format renders one entry as a single prompt line.
func Format(e Entry) string {
	switch e.Type {
	case FamilyDirect:
		return fmt.Sprintf("[talk] user: %s / %s: %s", e.UserText, e.Speaker, e.PetResponse)
	case FamilyReaction:
		return fmt.Sprintf("[reaction] %s: %s", e.PetName, e.PetResponse)
	case FamilyInterPet:
		return fmt.Sprintf("[pets] %s: %s / %s: %s", e.PetAName, e.PetAText, e.PetBName, e.PetBText)
	default:
		return ""
	}
}

// FormatAll renders entries in order, skipping unknown families.
func FormatAll(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if line := Format(e); line != "" {
			out = append(out, line)
		}
	}
	return out
}
