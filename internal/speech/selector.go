package speech

import (
	"math/rand/v2"
	"strings"
)

// Selector draws random lines from custom or built-in pools.
type Selector struct {
	rng *rand.Rand
}

// NewSelector returns a Selector using rng.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Random returns a line for t. Non-blank custom lines win over the built-in pool.
// An unknown type with no custom lines falls back to the idle pool.
func (s *Selector) Random(t Type, custom map[string][]string) string {
	if lines := nonBlank(custom[string(t)]); len(lines) > 0 {
		return lines[s.rng.IntN(len(lines))]
	}
	pool := defaultPools[t]
	if len(pool) == 0 {
		pool = defaultPools[TypeIdle]
	}
	return pool[s.rng.IntN(len(pool))]
}

// Fallback returns a fallback message of type t (apiError or noResponse),
// preferring the pet's configured override.
func (s *Selector) Fallback(t Type, overrides map[string]string) string {
	if msg := strings.TrimSpace(overrides[string(t)]); msg != "" {
		return msg
	}
	return s.Random(t, nil)
}

func nonBlank(lines []string) []string {
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
