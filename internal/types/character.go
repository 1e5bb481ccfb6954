// Package types holds the records the host application provides to the pets.
package types

// CharacterSheet is the host conversation's character.
type CharacterSheet struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
}

// Persona describes the user in the host conversation.
type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the host conversation.
type Message struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// WorldEntry is one world-info (lorebook) entry.
type WorldEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
