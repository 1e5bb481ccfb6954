// Package chatlog stores the pets' conversation logs in three keyed families.
package chatlog

import (
	"sort"
	"strings"
)

// Family is the log variant, persisted as the entry's "type".
type Family string

const (
	FamilyDirect   Family = "direct"
	FamilyReaction Family = "reaction"
	FamilyInterPet Family = "interPet"
)

// Direct-talk modes.
const (
	ModeSingle = "single"
	ModeDual   = "dual"
)

// DefaultMaxLogs caps each keyed list when no limit is configured.
const DefaultMaxLogs = 100

// Entry is one log line. Which fields are set depends on Type.
type Entry struct {
	Type      Family `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// direct
	UserText string `json:"userText,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
	Mode     string `json:"mode,omitempty"`

	// direct and reaction
	PetResponse string `json:"petResponse,omitempty"`
	Mood        string `json:"mood,omitempty"`

	// reaction
	Trigger string `json:"trigger,omitempty"`
	PetName string `json:"petName,omitempty"`

	// interPet
	PetAName string `json:"petAName,omitempty"`
	PetAText string `json:"petAText,omitempty"`
	PetAMood string `json:"petAMood,omitempty"`
	PetBName string `json:"petBName,omitempty"`
	PetBText string `json:"petBText,omitempty"`

	// Key is the list the entry lives in. Only set on query results.
	Key string `json:"key,omitempty"`
}

// Data is the persisted shape of all three families.
type Data struct {
	Direct   map[string][]Entry `json:"direct_logs"`
	Room     map[string][]Entry `json:"room_logs"`
	InterPet map[string][]Entry `json:"inter_pet_logs"`
}

// NewData returns empty log maps.
func NewData() Data {
	return Data{
		Direct:   map[string][]Entry{},
		Room:     map[string][]Entry{},
		InterPet: map[string][]Entry{},
	}
}

// CompositeKey returns the canonical key for a pair of pet names, independent of order.
func CompositeKey(a, b string) string {
	names := []string{a, b}
	sort.Strings(names)
	return strings.Join(names, "_")
}

func (d *Data) family(f Family) map[string][]Entry {
	switch f {
	case FamilyDirect:
		if d.Direct == nil {
			d.Direct = map[string][]Entry{}
		}
		return d.Direct
	case FamilyReaction:
		if d.Room == nil {
			d.Room = map[string][]Entry{}
		}
		return d.Room
	case FamilyInterPet:
		if d.InterPet == nil {
			d.InterPet = map[string][]Entry{}
		}
		return d.InterPet
	default:
		return nil
	}
}

// Families lists every family in a stable order.
var Families = []Family{FamilyDirect, FamilyReaction, FamilyInterPet}
