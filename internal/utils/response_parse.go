package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/easeaico/project-pet/internal/emotion"
)

// MaxReplyRunes bounds a parsed reply; longer text is cut and gets an ellipsis.
const MaxReplyRunes = 150

var (
	trailingMoodTag = regexp.MustCompile(`(?i)\[\s*MOOD\s*:\s*([a-z]*)\s*\]\s*$`)
	anyMoodTag      = regexp.MustCompile(`(?i)\[\s*MOOD\s*:[^\]]*\]`)
	boldAside       = regexp.MustCompile(`\*\*[^*]+\*\*`)
	systemBracket   = regexp.MustCompile(`(?i)^\s*[\[(【]\s*(system|시스템)[^\])】]*[\])】]\s*`)
	systemPrefix    = regexp.MustCompile(`(?i)^\s*(system|시스템)\s*[:：]\s*`)
	strayBrackets   = regexp.MustCompile(`^\s*[\[\]()]+\s*`)
	spaces          = regexp.MustCompile(`[ \t]{2,}`)
)

const edgeChars = " \t\r\n\"'“”‘’*`"

// Parsed is a cleaned model reply.
type Parsed struct {
	Text string
	Mood emotion.Mood
	// Tagged reports whether Mood came from a valid [MOOD:x] tag.
	Tagged bool
}

// ParseResponse cleans a raw model reply and derives its mood. It never fails:
// a missing or invalid tag falls back to keyword inference, then to happy.
// The returned text may be empty.
func ParseResponse(raw string) Parsed {
	text := strings.TrimSpace(raw)
	var out Parsed

	if m := trailingMoodTag.FindStringSubmatchIndex(text); m != nil {
		if mood, ok := emotion.ParseEmotive(text[m[2]:m[3]]); ok {
			out.Mood = mood
			out.Tagged = true
		}
		text = text[:m[0]]
	}
	text = anyMoodTag.ReplaceAllString(text, "")

	if !out.Tagged {
		out.Mood = emotion.MoodHappy
		if mood, ok := emotion.InferMood(text); ok {
			out.Mood = mood
		}
	}

	out.Text = truncate(stripArtifacts(text))
	return out
}

// ParseDualResponse splits a reply holding one labeled line per pet
// ("NameA: ... [MOOD:x]" / "NameB: ... [MOOD:y]") and parses each part.
// A part whose label is missing comes back with empty text and no mood.
func ParseDualResponse(raw, nameA, nameB string) (Parsed, Parsed) {
	locA := labelPattern(nameA).FindStringIndex(raw)
	locB := labelPattern(nameB).FindStringIndex(raw)
	return segment(raw, locA, locB), segment(raw, locB, locA)
}

func segment(raw string, own, other []int) Parsed {
	if own == nil {
		return Parsed{}
	}
	end := len(raw)
	if other != nil && other[0] > own[0] {
		end = other[0]
	}
	return ParseResponse(raw[own[1]:end])
}

func labelPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[\s*"'“]*` + regexp.QuoteMeta(strings.TrimSpace(name)) + `[\s*"'”]*[:：]`)
}

func stripArtifacts(text string) string {
	text = boldAside.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	for {
		before := text
		text = systemBracket.ReplaceAllString(text, "")
		text = systemPrefix.ReplaceAllString(text, "")
		text = strayBrackets.ReplaceAllString(text, "")
		if text == before {
			break
		}
	}
	text = spaces.ReplaceAllString(text, " ")
	return strings.Trim(text, edgeChars)
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxReplyRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:MaxReplyRunes])) + "..."
}
