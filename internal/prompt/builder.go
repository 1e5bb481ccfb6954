// Package prompt assembles the prompts sent to the pets' language model.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/types"
	"github.com/easeaico/project-pet/internal/utils"
)

const (
	minHistory = 1
	maxHistory = 20
)

// Pet is the prompt view of one pet.
type Pet struct {
	Name          string
	Personality   string
	RelationLabel string
	Mood          emotion.Mood
	Hungry        bool
}

// Input carries everything a prompt may draw on. Optional fields may be zero.
type Input struct {
	Mode         settings.PromptMode
	Pets         []Pet
	Character    *types.CharacterSheet
	Persona      *types.Persona
	History      []types.Message
	HistoryCount int
	WorldInfo    []types.WorldEntry
	Logs         []chatlog.Entry
	UserText     string
}

type view struct {
	Mode      settings.PromptMode
	Dual      bool
	Pets      []Pet
	CharName  string
	UserName  string
	Character *types.CharacterSheet
	Persona   *types.Persona
	WorldInfo []types.WorldEntry
	History   []types.Message
	Latest    *types.Message
	Logs      []string
	UserText  string
	Moods     string
	Now       string
}

// Builder renders prompts.
type Builder struct {
	nowFunc func() time.Time
}

// NewBuilder creates a prompt Builder.
func NewBuilder() *Builder {
	return &Builder{nowFunc: time.Now}
}

// Reaction builds the prompt for one or two pets commenting on the latest host message.
func (b *Builder) Reaction(in Input) (string, error) {
	if len(in.Pets) < 1 || len(in.Pets) > 2 {
		return "", fmt.Errorf("reaction prompt needs one or two pets, got %d", len(in.Pets))
	}
	return b.render(reactionTemplate, in)
}

// DirectTalk builds the prompt for the user addressing the pets directly.
func (b *Builder) DirectTalk(in Input) (string, error) {
	if len(in.Pets) < 1 || len(in.Pets) > 2 {
		return "", fmt.Errorf("direct talk prompt needs one or two pets, got %d", len(in.Pets))
	}
	if strings.TrimSpace(in.UserText) == "" {
		return "", fmt.Errorf("user text is required")
	}
	return b.render(directTemplate, in)
}

// Chatter builds the prompt for the two pets talking to each other.
func (b *Builder) Chatter(in Input) (string, error) {
	if len(in.Pets) != 2 {
		return "", fmt.Errorf("chatter prompt needs two pets, got %d", len(in.Pets))
	}
	return b.render(chatterTemplate, in)
}

func (b *Builder) render(tmpl *template.Template, in Input) (string, error) {
	v := b.view(in)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (b *Builder) view(in Input) view {
	charName, userName := "the character", "the user"
	if in.Character != nil && strings.TrimSpace(in.Character.Name) != "" {
		charName = in.Character.Name
	}
	if in.Persona != nil && strings.TrimSpace(in.Persona.Name) != "" {
		userName = in.Persona.Name
	}
	norm := func(s string) string {
		return strings.TrimSpace(utils.NormalizePromptText(s, charName, userName))
	}

	v := view{
		Mode:     in.Mode,
		Dual:     len(in.Pets) == 2,
		CharName: charName,
		UserName: userName,
		UserText: strings.TrimSpace(in.UserText),
		Logs:     chatlog.FormatAll(in.Logs),
		Moods:    moodList(),
		Now:      b.nowFunc().Format(time.RFC3339),
	}
	for _, p := range in.Pets {
		p.Personality = norm(p.Personality)
		v.Pets = append(v.Pets, p)
	}
	if in.Character != nil {
		v.Character = &types.CharacterSheet{
			Name:        charName,
			Description: norm(in.Character.Description),
			Personality: norm(in.Character.Personality),
		}
	}
	if in.Persona != nil {
		v.Persona = &types.Persona{Name: userName, Description: norm(in.Persona.Description)}
	}
	for _, e := range in.WorldInfo {
		v.WorldInfo = append(v.WorldInfo, types.WorldEntry{Title: e.Title, Content: norm(e.Content)})
	}
	v.History, v.Latest = HistoryWindow(in.History, in.HistoryCount)
	return v
}

// HistoryWindow splits off the most recent message and returns up to n messages
// before it. n is clamped to 1..20.
func HistoryWindow(msgs []types.Message, n int) ([]types.Message, *types.Message) {
	if len(msgs) == 0 {
		return nil, nil
	}
	n = min(max(n, minHistory), maxHistory)
	latest := msgs[len(msgs)-1]
	rest := msgs[:len(msgs)-1]
	if len(rest) > n {
		rest = rest[len(rest)-n:]
	}
	return append([]types.Message(nil), rest...), &latest
}

// MergeWorldInfo joins character-level and room-level entries, dropping blanks
// and exact duplicates while keeping first-seen order.
func MergeWorldInfo(character, room []types.WorldEntry) []types.WorldEntry {
	seen := map[types.WorldEntry]bool{}
	var out []types.WorldEntry
	for _, list := range [][]types.WorldEntry{character, room} {
		for _, e := range list {
			e.Title = strings.TrimSpace(e.Title)
			e.Content = strings.TrimSpace(e.Content)
			if e.Content == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

func moodList() string {
	names := make([]string, len(emotion.Emotive))
	for i, m := range emotion.Emotive {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func speaker(m types.Message) string {
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	return m.Role
}
