// Package cpu implements the automated opponent policy. Difficulty tiers map
// to fixed knock thresholds and draw biases; the policy's own randomness is
// wall-clock seeded on purpose and is not covered by the deal-reproducibility
// guarantee.
package cpu

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dingxinghu/Scat31/internal/deck"
	"github.com/dingxinghu/Scat31/internal/game"
)

// Difficulty selects how sharply a CPU seat plays.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// String returns the string representation of a difficulty
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "?"
	}
}

// ParseDifficulty parses a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Medium, fmt.Errorf("unknown difficulty %q", s)
	}
}

type tierParams struct {
	knockAt  float64 // knock when hand value reaches this
	takeBias float64 // probability of taking an improving discard
}

var tiers = map[Difficulty]tierParams{
	Easy:   {knockAt: 28, takeBias: 0.2},
	Medium: {knockAt: 27, takeBias: 0.6},
	Hard:   {knockAt: 25, takeBias: 0.9},
}

// easyMisplayRate is how often the easy tier throws away a random card
// instead of the best one.
const easyMisplayRate = 0.6

// flushBonus is the hard tier's score bump for keeping two or more cards of
// one suit when choosing a discard.
const flushBonus = 0.15

// Policy decides actions for CPU seats of one difficulty. A single Policy is
// shared by every CPU seat in a room.
type Policy struct {
	diff Difficulty
	rng  *rand.Rand
}

// New creates a policy with its own wall-clock-seeded randomness.
func New(diff Difficulty) *Policy {
	return NewWithRand(diff, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a policy with injected randomness for tests.
func NewWithRand(diff Difficulty, rng *rand.Rand) *Policy {
	return &Policy{diff: diff, rng: rng}
}

// Difficulty returns the tier this policy plays at.
func (p *Policy) Difficulty() Difficulty { return p.diff }

// Decide returns the next action for the seat described by st. The driver
// calls it once per engine step: a turn needing a draw and a discard takes
// two calls.
func (p *Policy) Decide(st game.SeatState) game.Action {
	if st.MustDiscard {
		return game.Action{Type: game.Discard, CardID: p.chooseDiscard(st)}
	}

	params := tiers[p.diff]
	if st.CanKnock && st.HandValue >= params.knockAt {
		return game.Action{Type: game.Knock}
	}

	if st.DiscardTop != nil && takingImproves(st.Hand, *st.DiscardTop, st.Rules) {
		if p.diff == Hard || p.rng.Float64() < params.takeBias {
			return game.Action{Type: game.DrawDiscard}
		}
	}
	return game.Action{Type: game.DrawStock}
}

// takingImproves reports whether swapping any held card for the discard top
// yields a better hand than the current one.
func takingImproves(hand []deck.Card, top deck.Card, rules game.Rules) bool {
	if len(hand) != 3 {
		return false
	}
	current := game.HandValue(hand, rules)
	scratch := make([]deck.Card, 3)
	for i := range hand {
		copy(scratch, hand)
		scratch[i] = top
		if game.HandValue(scratch, rules) > current {
			return true
		}
	}
	return false
}

// chooseDiscard picks which of the four held cards to throw away. The card
// taken from the discard pile this turn is never a candidate: throwing it
// back is illegal.
func (p *Policy) chooseDiscard(st game.SeatState) int {
	var candidates []int
	for i, c := range st.Hand {
		if c.ID != st.TookDiscardID {
			candidates = append(candidates, i)
		}
	}

	if p.diff == Easy && p.rng.Float64() < easyMisplayRate {
		return st.Hand[candidates[p.rng.Intn(len(candidates))]].ID
	}

	bestIdx := candidates[0]
	bestScore := -1.0
	kept := make([]deck.Card, 0, 3)
	for _, i := range candidates {
		kept = kept[:0]
		for j, c := range st.Hand {
			if j != i {
				kept = append(kept, c)
			}
		}
		score := game.HandValue(kept, st.Rules)
		if p.diff == Hard && hasSuitPair(kept) {
			score += flushBonus
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return st.Hand[bestIdx].ID
}

// hasSuitPair reports whether two or more of the cards share a suit, a proxy
// for flush potential.
func hasSuitPair(cards []deck.Card) bool {
	var counts [4]int
	for _, c := range cards {
		counts[c.Suit]++
		if counts[c.Suit] >= 2 {
			return true
		}
	}
	return false
}
