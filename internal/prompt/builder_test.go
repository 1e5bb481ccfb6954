package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/types"
)

func newTestBuilder() *Builder {
	b := NewBuilder()
	b.nowFunc = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return b
}

func baseInput() Input {
	return Input{
		Mode:      settings.PromptObserver,
		Pets:      []Pet{{Name: "Mochi", Personality: "loves {{user}}", Mood: emotion.MoodHappy}},
		Character: &types.CharacterSheet{Name: "Aria", Description: "a knight"},
		Persona:   &types.Persona{Name: "Jin"},
		History: []types.Message{
			{Role: types.RoleUser, Name: "Jin", Content: "first"},
			{Role: types.RoleAssistant, Name: "Aria", Content: "second"},
			{Role: types.RoleUser, Name: "Jin", Content: "third"},
		},
		HistoryCount: 5,
	}
}

func TestReactionObserverSingle(t *testing.T) {
	got, err := newTestBuilder().Reaction(baseInput())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []string{
		"never speak as Aria",
		"[Mochi]",
		"Personality: loves Jin",
		"【Latest message】",
		"Jin: third",
		"ending with [MOOD:<mood>]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestReactionCharacterDual(t *testing.T) {
	in := baseInput()
	in.Mode = settings.PromptCharacter
	in.Pets = append(in.Pets, Pet{Name: "Bori", Mood: emotion.MoodIdle})
	got, err := newTestBuilder().Reaction(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(got, "hidden inner voices of Aria") {
		t.Fatalf("expected character framing:\n%s", got)
	}
	if !strings.Contains(got, "Mochi: <line> [MOOD:<mood>]") || !strings.Contains(got, "Bori: <line> [MOOD:<mood>]") {
		t.Fatalf("expected dual format:\n%s", got)
	}
}

func TestReactionRejectsPetCount(t *testing.T) {
	in := baseInput()
	in.Pets = nil
	if _, err := newTestBuilder().Reaction(in); err == nil {
		t.Fatalf("expected error without pets")
	}
}

func TestDirectTalkRequiresText(t *testing.T) {
	in := baseInput()
	if _, err := newTestBuilder().DirectTalk(in); err == nil {
		t.Fatalf("expected error for empty user text")
	}
	in.UserText = "are you hungry?"
	got, err := newTestBuilder().DirectTalk(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(got, "are you hungry?") {
		t.Fatalf("user text missing:\n%s", got)
	}
}

func TestChatterIncludesLogSection(t *testing.T) {
	in := baseInput()
	in.Pets = append(in.Pets, Pet{Name: "Bori", Mood: emotion.MoodShy})
	in.Logs = []chatlog.Entry{{Type: chatlog.FamilyInterPet, PetAName: "Mochi", PetAText: "hi", PetBName: "Bori", PetBText: "yo"}}
	got, err := newTestBuilder().Chatter(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(got, "Do not repeat") || !strings.Contains(got, "[pets] Mochi: hi / Bori: yo") {
		t.Fatalf("log section missing:\n%s", got)
	}
	in.Pets = in.Pets[:1]
	if _, err := newTestBuilder().Chatter(in); err == nil {
		t.Fatalf("expected error with one pet")
	}
}

func TestHistoryWindow(t *testing.T) {
	var msgs []types.Message
	for i := 0; i < 30; i++ {
		msgs = append(msgs, types.Message{Role: types.RoleUser, Content: fmt.Sprint(i)})
	}

	window, latest := HistoryWindow(msgs, 50)
	if len(window) != 20 || latest.Content != "29" || window[0].Content != "9" {
		t.Fatalf("unexpected clamp to 20: len=%d latest=%s first=%s", len(window), latest.Content, window[0].Content)
	}
	window, _ = HistoryWindow(msgs, 0)
	if len(window) != 1 || window[0].Content != "28" {
		t.Fatalf("unexpected clamp to 1: %+v", window)
	}
	if window, latest := HistoryWindow(nil, 5); window != nil || latest != nil {
		t.Fatalf("expected empty window")
	}
}

func TestMergeWorldInfoDedupes(t *testing.T) {
	char := []types.WorldEntry{{Title: "Castle", Content: "Old stones"}, {Title: "Blank", Content: " "}}
	room := []types.WorldEntry{{Title: "Castle ", Content: "Old stones"}, {Title: "River", Content: "Cold"}}
	got := MergeWorldInfo(char, room)
	if len(got) != 2 || got[0].Title != "Castle" || got[1].Title != "River" {
		t.Fatalf("unexpected merge: %+v", got)
	}
}
