package deck

import "math/rand/v2"

// RandomSource yields uniform integers in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultSource returns a RandomSource backed by the process-wide generator.
// It is safe for concurrent use.
func DefaultSource() RandomSource {
	return globalSource{}
}

// Filter returns the cards of the given type, preserving deck order.
func Filter(cards []Card, t CardType) []Card {
	var out []Card
	for _, c := range cards {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Draw picks a card of the required type uniformly at random. Draws are
// independent; the same card may come up again on the next draw. ok is false
// when the deck holds no card of that type.
func Draw(cards []Card, t CardType, rng RandomSource) (card Card, ok bool) {
	matching := Filter(cards, t)
	if len(matching) == 0 {
		return Card{}, false
	}
	if rng == nil {
		rng = DefaultSource()
	}
	idx := rng.IntN(len(matching))
	if idx < 0 || idx >= len(matching) {
		idx = 0
	}
	return matching[idx], true
}
