package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/easeaico/project-pet/internal/emotion"
)

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		text   string
		mood   emotion.Mood
		tagged bool
	}{
		{"trailing tag", "안녕! [MOOD:happy]", "안녕!", emotion.MoodHappy, true},
		{"no keyword", "그냥 그래", "그냥 그래", emotion.MoodHappy, false},
		{"keyword inside word", "I made you some tea", "I made you some tea", emotion.MoodHappy, false},
		{"bold aside", "**System Note** 화나!", "화나!", emotion.MoodAngry, false},
		{"case insensitive tag", "오늘 좀 피곤해 [mood:SAD]", "오늘 좀 피곤해", emotion.MoodSad, true},
		{"non emotive tag stripped", "졸려... [MOOD:sleeping]", "졸려...", emotion.MoodHappy, false},
		{"inner tags stripped", "[MOOD:shy] 음 [MOOD:angry]", "음", emotion.MoodAngry, true},
		{"system prefix", "System: 깜짝이야!", "깜짝이야!", emotion.MoodSurprised, false},
		{"korean system prefix", "시스템: 안녕", "안녕", emotion.MoodHappy, false},
		{"bracket announcement", "[System message] 좋아", "좋아", emotion.MoodHappy, false},
		{"quotes and asterisks", `*"부끄러워..."*`, "부끄러워...", emotion.MoodShy, false},
		{"stray bracket", "] 괜찮아", "괜찮아", emotion.MoodHappy, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseResponse(tc.raw)
			if got.Text != tc.text {
				t.Fatalf("text: expected %q, got %q", tc.text, got.Text)
			}
			if got.Mood != tc.mood {
				t.Fatalf("mood: expected %s, got %s", tc.mood, got.Mood)
			}
			if got.Tagged != tc.tagged {
				t.Fatalf("tagged: expected %v, got %v", tc.tagged, got.Tagged)
			}
		})
	}
}

func TestParseResponseEmpty(t *testing.T) {
	got := ParseResponse("  [MOOD:happy] ")
	if got.Text != "" {
		t.Fatalf("expected empty text, got %q", got.Text)
	}
}

func TestParseResponseTruncates(t *testing.T) {
	got := ParseResponse(strings.Repeat("가", 200))
	if !strings.HasSuffix(got.Text, "...") {
		t.Fatalf("expected ellipsis, got %q", got.Text)
	}
	if n := utf8.RuneCountInString(got.Text); n != MaxReplyRunes+3 {
		t.Fatalf("expected %d runes, got %d", MaxReplyRunes+3, n)
	}
}

func TestParseDualResponse(t *testing.T) {
	raw := "Mochi: 우와 대박! [MOOD:excited]\nBori: 흥, 별로야 [MOOD:angry]"
	a, b := ParseDualResponse(raw, "Mochi", "Bori")
	if a.Text != "우와 대박!" || a.Mood != emotion.MoodExcited {
		t.Fatalf("unexpected A: %+v", a)
	}
	if b.Text != "흥, 별로야" || b.Mood != emotion.MoodAngry {
		t.Fatalf("unexpected B: %+v", b)
	}
}

func TestParseDualResponseReversedOrder(t *testing.T) {
	raw := "**Bori**: 나 먼저! [MOOD:confident]\nMochi: 알았어 [MOOD:shy]"
	a, b := ParseDualResponse(raw, "Mochi", "Bori")
	if a.Text != "알았어" || b.Text != "나 먼저!" {
		t.Fatalf("unexpected split: %+v / %+v", a, b)
	}
}

func TestParseDualResponseMissingSegment(t *testing.T) {
	a, b := ParseDualResponse("Mochi: 안녕 [MOOD:happy]", "Mochi", "Bori")
	if a.Text != "안녕" {
		t.Fatalf("unexpected A: %+v", a)
	}
	if b.Text != "" {
		t.Fatalf("expected empty B, got %+v", b)
	}
}
