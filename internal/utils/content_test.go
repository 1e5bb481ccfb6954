package utils

import (
	"testing"

	"google.golang.org/genai"
)

func TestNormalizePromptText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"macros", "{{char}} smiles at {{user}}.", "Aria smiles at Ren."},
		{"macro case and spacing", "{{ Char }} and {{USER}}", "Aria and Ren"},
		{"legacy tags", "<BOT> greets <user>", "Aria greets Ren"},
		{"escaped newlines", `line one\nline two`, "line one\nline two"},
		{"escaped quotes", `she said \"hi\"`, `she said "hi"`},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePromptText(tt.in, "Aria", "Ren"); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractContentTextSkipsThoughts(t *testing.T) {
	content := &genai.Content{Parts: []*genai.Part{
		{Text: "planning the reply", Thought: true},
		{Text: "Hello"},
		nil,
		{Text: " there"},
	}}
	if got := ExtractContentText(content); got != "Hello there" {
		t.Fatalf("unexpected text %q", got)
	}
	if ExtractContentText(nil) != "" {
		t.Fatalf("nil content should give empty text")
	}
}
