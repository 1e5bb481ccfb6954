package speech

import (
	"math/rand/v2"
	"testing"
)

func newTestSelector() *Selector {
	return NewSelector(rand.New(rand.NewPCG(7, 7)))
}

func TestRandomPrefersNonBlankCustomLines(t *testing.T) {
	s := newTestSelector()
	custom := map[string][]string{"click": {"  ", "custom line", ""}}
	for i := 0; i < 20; i++ {
		if got := s.Random(TypeClick, custom); got != "custom line" {
			t.Fatalf("expected custom line, got %q", got)
		}
	}
}

func TestRandomFallsBackToDefaults(t *testing.T) {
	s := newTestSelector()
	custom := map[string][]string{"click": {" ", ""}}
	allowed := map[string]bool{}
	for _, line := range Defaults(TypeClick) {
		allowed[line] = true
	}
	for i := 0; i < 20; i++ {
		if got := s.Random(TypeClick, custom); !allowed[got] {
			t.Fatalf("unexpected default line %q", got)
		}
	}
}

func TestRandomUnknownTypeUsesIdlePool(t *testing.T) {
	s := newTestSelector()
	allowed := map[string]bool{}
	for _, line := range Defaults(TypeIdle) {
		allowed[line] = true
	}
	if got := s.Random(Type("bogus"), nil); !allowed[got] {
		t.Fatalf("expected idle line, got %q", got)
	}
}

func TestFallbackOverride(t *testing.T) {
	s := newTestSelector()
	if got := s.Fallback(TypeAPIError, map[string]string{"apiError": "offline"}); got != "offline" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := s.Fallback(TypeNoResponse, nil); got == "" {
		t.Fatalf("expected default fallback")
	}
}
