// Package speech picks scripted lines for non-AI reactions.
package speech

// Type names a speech pool. Trigger names double as speech types.
type Type string

const (
	TypeIdle        Type = "idle"
	TypeSleeping    Type = "sleeping"
	TypeDragging    Type = "dragging"
	TypeClick       Type = "click"
	TypeClickSpam   Type = "clickSpam"
	TypePetting     Type = "petting"
	TypeGreeting    Type = "greeting"
	TypeLateNight   Type = "latenight"
	TypeMorning     Type = "morning"
	TypeLongAbsence Type = "longAbsence"
	TypeFeeding     Type = "feeding"
	TypeHungry      Type = "hungry"
	TypeDream       Type = "dream"
	TypeAPIError    Type = "apiError"
	TypeNoResponse  Type = "noResponse"
)

// defaultPools holds the built-in lines for every speech type.
var defaultPools = map[Type][]string{
	TypeIdle: {
		"심심해~",
		"뭐 하고 있어?",
		"나랑 놀아줘!",
		"흠흠~ ♪",
	},
	TypeSleeping: {
		"Zzz...",
		"쿨쿨...",
		"음냐음냐...",
	},
	TypeDragging: {
		"으앗! 어디 가는 거야?",
		"내려줘~!",
		"우와, 날고 있어!",
	},
	TypeClick: {
		"응? 불렀어?",
		"헤헤, 간지러워!",
		"왜~?",
	},
	TypeClickSpam: {
		"그만 좀 눌러!",
		"아파! 화났어!",
		"자꾸 그러면 삐질 거야!",
	},
	TypePetting: {
		"헤헤... 좋아...",
		"더 쓰다듬어줘~",
		"부끄러워...",
	},
	TypeGreeting: {
		"안녕! 반가워!",
		"왔구나! 기다렸어!",
		"오늘도 잘 부탁해!",
	},
	TypeLateNight: {
		"이렇게 늦게까지 안 자?",
		"밤이 깊었어... 얼른 자야지.",
	},
	TypeMorning: {
		"으음... 벌써 아침이야?",
		"5분만 더...",
	},
	TypeLongAbsence: {
		"어디 갔었어?! 엄청 보고 싶었어!",
		"드디어 왔구나! 너무 오래 걸렸잖아!",
	},
	TypeFeeding: {
		"냠냠! 맛있어!",
		"고마워! 배불러~",
		"우와, 간식이다!",
	},
	TypeHungry: {
		"배고파...",
		"밥 줘...",
		"꼬르륵...",
	},
	TypeDream: {
		"(꿈속에서) 간식이 산더미야...",
		"(잠꼬대) 헤헤... 같이 놀자...",
	},
	TypeAPIError: {
		"으음... 머리가 잘 안 돌아가...",
		"잠깐, 지금은 대답하기 어려워.",
	},
	TypeNoResponse: {
		"...할 말을 잊어버렸어.",
		"음... 뭐라고 하려 했더라?",
	},
}

// Defaults returns a copy of the built-in lines for t.
func Defaults(t Type) []string {
	lines := defaultPools[t]
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
