package utils

import (
	"regexp"
	"strings"

	"google.golang.org/genai"
)

var (
	charMacro  = regexp.MustCompile(`(?i)\{\{\s*char\s*\}\}|<bot>`)
	userMacro  = regexp.MustCompile(`(?i)\{\{\s*user\s*\}\}|<user>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// ExtractContentText joins the visible text parts of content. Thought parts are skipped.
func ExtractContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// NormalizePromptText expands character card macros and unescapes literal
// newline and quote sequences left by card exporters.
func NormalizePromptText(text string, charName, userName string) string {
	text = charMacro.ReplaceAllLiteralString(text, charName)
	text = userMacro.ReplaceAllLiteralString(text, userName)
	text = strings.NewReplacer(`\r\n`, "\n", `\n`, "\n", `\"`, `"`, "\r\n", "\n").Replace(text)
	return blankLines.ReplaceAllString(text, "\n\n")
}
