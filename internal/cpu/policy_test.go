package cpu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dingxinghu/Scat31/internal/deck"
	"github.com/dingxinghu/Scat31/internal/game"
)

func card(s deck.Suit, r deck.Rank) deck.Card {
	return deck.NewCard(s, r)
}

func seatState(hand []deck.Card, top *deck.Card) game.SeatState {
	rules := game.DefaultRules()
	return game.SeatState{
		PlayerID:      "cpu-1",
		Hand:          hand,
		HandValue:     game.HandValue(hand, rules),
		DiscardTop:    top,
		CanKnock:      true,
		DrawnID:       -1,
		TookDiscardID: -1,
		Rules:         rules,
	}
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{
		"easy": Easy, "medium": Medium, "hard": Hard, "": Medium,
	} {
		got, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDifficulty("brutal")
	assert.Error(t, err)
}

func TestHardKnocksAtTwentyFive(t *testing.T) {
	p := NewWithRand(Hard, rand.New(rand.NewSource(1)))

	st := seatState([]deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Spades, deck.Five),
	}, nil) // 25
	assert.Equal(t, game.Knock, p.Decide(st).Type)

	st = seatState([]deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Diamonds, deck.Five),
	}, nil) // 20
	assert.Equal(t, game.DrawStock, p.Decide(st).Type)
}

func TestEasyHoldsOutForTwentyEight(t *testing.T) {
	p := NewWithRand(Easy, rand.New(rand.NewSource(1)))

	hand := []deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Spades, deck.Five),
	} // 25: hard knocks this, easy keeps playing
	got := p.Decide(seatState(hand, nil))
	assert.NotEqual(t, game.Knock, got.Type)

	hand = []deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Spades, deck.Eight),
	} // 28
	assert.Equal(t, game.Knock, p.Decide(seatState(hand, nil)).Type)
}

func TestKnockRequiresEligibility(t *testing.T) {
	p := NewWithRand(Hard, rand.New(rand.NewSource(1)))
	st := seatState([]deck.Card{
		card(deck.Spades, deck.Ace),
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Nine),
	}, nil) // 30
	st.CanKnock = false
	assert.NotEqual(t, game.Knock, p.Decide(st).Type)
}

func TestHardAlwaysTakesImprovingDiscard(t *testing.T) {
	p := NewWithRand(Hard, rand.New(rand.NewSource(1)))

	top := card(deck.Diamonds, deck.King)
	hand := []deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Hearts, deck.Five),
		card(deck.Diamonds, deck.Nine),
	} // 9; K-9 of diamonds would make 19
	for i := 0; i < 20; i++ {
		assert.Equal(t, game.DrawDiscard, p.Decide(seatState(hand, &top)).Type)
	}
}

func TestUselessDiscardTopIsLeftAlone(t *testing.T) {
	p := NewWithRand(Hard, rand.New(rand.NewSource(1)))

	top := card(deck.Hearts, deck.Two)
	hand := []deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Diamonds, deck.Five),
	} // 20; no swap with the 2 of hearts improves it
	assert.Equal(t, game.DrawStock, p.Decide(seatState(hand, &top)).Type)
}

func TestMediumDiscardKeepsBestValue(t *testing.T) {
	p := NewWithRand(Medium, rand.New(rand.NewSource(1)))

	junk := card(deck.Hearts, deck.Two)
	st := seatState([]deck.Card{
		card(deck.Spades, deck.Ace),
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		junk,
	}, nil)
	st.MustDiscard = true
	st.DrawnID = junk.ID

	got := p.Decide(st)
	assert.Equal(t, game.Discard, got.Type)
	assert.Equal(t, junk.ID, got.CardID)
}

func TestDiscardNeverReturnsTakenCard(t *testing.T) {
	// The card just taken from the pile is the one a value-only chooser would
	// throw back; every tier must pick something else.
	taken := card(deck.Hearts, deck.Two)
	for _, diff := range []Difficulty{Easy, Medium, Hard} {
		p := NewWithRand(diff, rand.New(rand.NewSource(3)))
		for i := 0; i < 50; i++ {
			st := seatState([]deck.Card{
				card(deck.Spades, deck.Ace),
				card(deck.Spades, deck.King),
				card(deck.Spades, deck.Queen),
				taken,
			}, nil)
			st.MustDiscard = true
			st.DrawnID = taken.ID
			st.TookDiscardID = taken.ID

			got := p.Decide(st)
			require.Equal(t, game.Discard, got.Type)
			require.NotEqual(t, taken.ID, got.CardID, "tier %s", diff)
		}
	}
}

func TestEasyDiscardStaysLegal(t *testing.T) {
	p := NewWithRand(Easy, rand.New(rand.NewSource(5)))
	hand := []deck.Card{
		card(deck.Spades, deck.Ace),
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Hearts, deck.Two),
	}
	held := map[int]bool{}
	for _, c := range hand {
		held[c.ID] = true
	}
	for i := 0; i < 100; i++ {
		st := seatState(hand, nil)
		st.MustDiscard = true
		got := p.Decide(st)
		require.Equal(t, game.Discard, got.Type)
		require.True(t, held[got.CardID], "discarded a card not in hand")
	}
}

func TestHardPrefersKeepingSuitPair(t *testing.T) {
	// Every keep here is worth 10 points, so the flush bonus decides: the
	// hard tier holds the heart pair and lets the queen go, while medium
	// settles for the first value-equal discard.
	hand := []deck.Card{
		card(deck.Hearts, deck.Eight),
		card(deck.Spades, deck.Queen),
		card(deck.Diamonds, deck.Nine),
		card(deck.Hearts, deck.Two),
	}

	hardSt := seatState(hand, nil)
	hardSt.MustDiscard = true
	got := NewWithRand(Hard, rand.New(rand.NewSource(1))).Decide(hardSt)
	require.Equal(t, game.Discard, got.Type)
	assert.Equal(t, card(deck.Spades, deck.Queen).ID, got.CardID)

	medSt := seatState(hand, nil)
	medSt.MustDiscard = true
	got = NewWithRand(Medium, rand.New(rand.NewSource(1))).Decide(medSt)
	require.Equal(t, game.Discard, got.Type)
	assert.Equal(t, card(deck.Hearts, deck.Eight).ID, got.CardID)
}
