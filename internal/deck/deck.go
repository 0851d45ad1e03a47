package deck

// lcg is a linear-congruential generator producing floats in [0, 1).
// The constants are fixed: changing them breaks deal reproducibility, which
// the test suite and replay tooling depend on.
type lcg struct {
	state uint32
}

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

func newLCG(seed int64) *lcg {
	return &lcg{state: uint32(seed)}
}

// Float64 advances the generator and returns the next value in [0, 1).
func (g *lcg) Float64() float64 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return float64(g.state) / (1 << 32)
}

// Shuffle performs an in-place Fisher-Yates shuffle of cards using the LCG
// stream seeded by seed. Equal seeds over equal inputs yield equal orderings.
func Shuffle(cards []Card, seed int64) {
	rng := newLCG(seed)
	for i := len(cards) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// New builds the standard 52-card set and shuffles it with the given seed.
// The returned slice is used as a stack with the top at the last element.
func New(seed int64) []Card {
	cards := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	Shuffle(cards, seed)
	return cards
}
