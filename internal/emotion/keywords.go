package emotion

import (
	"regexp"
	"strings"
)

type keywordRule struct {
	mood Mood
	// stems match anywhere, since Korean attaches endings to the stem.
	stems []string
	// words match only as whole words.
	words *regexp.Regexp
}

func rule(mood Mood, stems []string, words ...string) keywordRule {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return keywordRule{
		mood:  mood,
		stems: stems,
		words: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// keywordRules is checked in order; the first rule with a hit wins.
var keywordRules = []keywordRule{
	rule(MoodAngry, []string{"화나", "화가", "짜증", "분노", "열받", "빡치"},
		"angry", "mad", "annoyed", "annoying", "furious"),
	rule(MoodShy, []string{"부끄", "수줍", "쑥스", "민망", "얼굴이 빨"},
		"shy", "blush", "blushes", "blushing", "embarrassed", "embarrassing"),
	rule(MoodSad, []string{"슬퍼", "슬프", "우울", "눈물", "속상", "서운"},
		"sad", "cry", "cries", "crying", "tears", "lonely"),
	rule(MoodNervous, []string{"불안", "긴장", "걱정", "떨려", "무서"},
		"nervous", "worried", "anxious", "scared"),
	rule(MoodSurprised, []string{"놀라", "놀랐", "깜짝", "헉", "세상에"},
		"surprised", "wow", "omg", "whoa"),
	rule(MoodExcited, []string{"신나", "설레", "두근", "최고", "야호"},
		"excited", "yay", "awesome", "can't wait"),
	rule(MoodConfident, []string{"당연", "자신있", "확신", "문제없", "맡겨"},
		"confident", "of course", "obviously"),
	rule(MoodHappy, []string{"좋아", "행복", "기뻐", "기쁘", "ㅎㅎ", "ㅋㅋ"},
		"happy", "glad", "love", "loved", "nice"),
}

// InferMood scans text for mood keywords. It returns false if nothing matched.
func InferMood(text string) (Mood, bool) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return "", false
	}
	for _, r := range keywordRules {
		for _, stem := range r.stems {
			if strings.Contains(lower, stem) {
				return r.mood, true
			}
		}
		if r.words.MatchString(lower) {
			return r.mood, true
		}
	}
	return "", false
}
