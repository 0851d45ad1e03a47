package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dingxinghu/Scat31/internal/deck"
)

// newTestGame seats n human players p1..pN and returns the game, undealt.
func newTestGame(t *testing.T, rules Rules, n int) *Game {
	t.Helper()
	g, err := New("r1", rules, 7)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := g.AddPlayer(fmt.Sprintf("p%d", i+1), fmt.Sprintf("Player %d", i+1), Human)
		require.NoError(t, err)
	}
	return g
}

// riggedStock builds a stock that deals hands[j] to the j-th seat in deal
// order (starting left of the dealer, dealer last), then flips up as the
// first discard. The extra cards remain as the stock; the last one is drawn
// first.
func riggedStock(hands [][3]deck.Card, up deck.Card, extra ...deck.Card) []deck.Card {
	var pops []deck.Card
	for round := 0; round < 3; round++ {
		for _, h := range hands {
			pops = append(pops, h[round])
		}
	}
	pops = append(pops, up)

	stock := append([]deck.Card(nil), extra...)
	for i := len(pops) - 1; i >= 0; i-- {
		stock = append(stock, pops[i])
	}
	return stock
}

func TestDeal(t *testing.T) {
	g := newTestGame(t, DefaultRules(), 2)

	// Dealer is seat 0, so seat 1 is dealt to (and acts) first.
	p2Hand := [3]deck.Card{card(deck.Spades, deck.Two), card(deck.Hearts, deck.Five), card(deck.Diamonds, deck.Nine)}
	p1Hand := [3]deck.Card{card(deck.Clubs, deck.Three), card(deck.Hearts, deck.Seven), card(deck.Diamonds, deck.King)}
	up := card(deck.Spades, deck.Four)
	extra := card(deck.Hearts, deck.Queen)

	require.NoError(t, g.deal(riggedStock([][3]deck.Card{p2Hand, p1Hand}, up, extra)))

	assert.Equal(t, Playing, g.Phase())
	assert.True(t, g.Started())
	assert.Equal(t, 1, g.TurnIndex())
	assert.Equal(t, p1Hand[:], g.Players()[0].Hand)
	assert.Equal(t, p2Hand[:], g.Players()[1].Hand)
	assert.Equal(t, []deck.Card{extra}, g.stock)
	assert.Equal(t, []deck.Card{up}, g.discard)
	assert.False(t, g.PendingDiscard())
}

func TestDealtThirtyOneEndsHand(t *testing.T) {
	g := newTestGame(t, DefaultRules(), 2)

	p2Hand := [3]deck.Card{card(deck.Spades, deck.Ace), card(deck.Spades, deck.King), card(deck.Spades, deck.Ten)}
	p1Hand := [3]deck.Card{card(deck.Clubs, deck.Three), card(deck.Hearts, deck.Seven), card(deck.Diamonds, deck.King)}

	require.NoError(t, g.deal(riggedStock([][3]deck.Card{p2Hand, p1Hand}, card(deck.Hearts, deck.Four))))

	assert.Equal(t, HandOver, g.Phase())
	assert.Equal(t, 2, g.Players()[0].Lives, "the player without 31 pays a life")
	assert.Equal(t, 3, g.Players()[1].Lives)
	assert.Empty(t, g.WinnerID())
}

func TestDealtThirtyOneWinsOnLastLife(t *testing.T) {
	rules := DefaultRules()
	rules.StartingLives = 1
	g := newTestGame(t, rules, 2)

	p2Hand := [3]deck.Card{card(deck.Spades, deck.Ace), card(deck.Spades, deck.King), card(deck.Spades, deck.Ten)}
	p1Hand := [3]deck.Card{card(deck.Clubs, deck.Three), card(deck.Hearts, deck.Seven), card(deck.Diamonds, deck.King)}

	require.NoError(t, g.deal(riggedStock([][3]deck.Card{p2Hand, p1Hand}, card(deck.Hearts, deck.Four))))

	assert.Equal(t, GameOver, g.Phase())
	assert.True(t, g.Players()[0].Eliminated)
	assert.Equal(t, "p2", g.WinnerID())
}

func TestStartHandRequiresTwoPlayers(t *testing.T) {
	g := newTestGame(t, DefaultRules(), 1)
	err := g.StartHand()
	assert.ErrorIs(t, err, ErrTooFewPlayers)
}

func TestAddPlayerLimits(t *testing.T) {
	g := newTestGame(t, DefaultRules(), MaxSeats)
	_, err := g.AddPlayer("extra", "Extra", Human)
	assert.ErrorIs(t, err, ErrRoomFull)

	g2 := newTestGame(t, DefaultRules(), 2)
	require.NoError(t, g2.StartHand())
	_, err = g2.AddPlayer("late", "Late", Human)
	assert.ErrorIs(t, err, ErrGameStarted)
}

func TestNextHandRotatesDealerPastEliminated(t *testing.T) {
	g := newTestGame(t, DefaultRules(), 3)
	require.NoError(t, g.StartHand())
	g.phase = HandOver
	g.players[1].Eliminated = true
	g.players[1].Lives = 0

	require.NoError(t, g.NextHand())
	assert.Equal(t, 2, g.dealer, "seat 1 is out, so the deal skips to seat 2")
}

func TestNextHandRejectedMidHand(t *testing.T) {
	g := newTestGame(t, DefaultRules(), 2)
	require.NoError(t, g.StartHand())
	if g.Phase() == Playing {
		assert.ErrorIs(t, g.NextHand(), ErrHandInProgress)
	}
}

func TestRematchResetsEveryone(t *testing.T) {
	rules := DefaultRules()
	rules.StartingLives = 1
	g := newTestGame(t, rules, 2)

	p2Hand := [3]deck.Card{card(deck.Spades, deck.Ace), card(deck.Spades, deck.King), card(deck.Spades, deck.Ten)}
	p1Hand := [3]deck.Card{card(deck.Clubs, deck.Three), card(deck.Hearts, deck.Seven), card(deck.Diamonds, deck.King)}
	require.NoError(t, g.deal(riggedStock([][3]deck.Card{p2Hand, p1Hand}, card(deck.Hearts, deck.Four))))
	require.Equal(t, GameOver, g.Phase())

	require.NoError(t, g.Rematch())
	for _, p := range g.Players() {
		assert.False(t, p.Eliminated)
		assert.Equal(t, 1, p.Lives)
	}
	assert.Empty(t, g.WinnerID())
	assert.Equal(t, 0, g.dealer)
}

func TestCardConservation(t *testing.T) {
	g := newTestGame(t, DefaultRules(), 2)

	p2Hand := [3]deck.Card{card(deck.Spades, deck.Two), card(deck.Hearts, deck.Five), card(deck.Diamonds, deck.Nine)}
	p1Hand := [3]deck.Card{card(deck.Clubs, deck.Three), card(deck.Hearts, deck.Seven), card(deck.Diamonds, deck.King)}
	up := card(deck.Spades, deck.Four)
	extra := []deck.Card{card(deck.Clubs, deck.Jack), card(deck.Hearts, deck.Queen)}
	require.NoError(t, g.deal(riggedStock([][3]deck.Card{p2Hand, p1Hand}, up, extra...)))

	total := func() int {
		n := len(g.stock) + len(g.discard)
		for _, p := range g.Players() {
			n += len(p.Hand)
		}
		return n
	}
	want := total()

	require.NoError(t, g.Apply("p2", Action{Type: DrawStock}))
	assert.Equal(t, want, total())
	require.NoError(t, g.Apply("p2", Action{Type: Discard, CardID: g.turnState.DrawnID}))
	assert.Equal(t, want, total())
	require.NoError(t, g.Apply("p1", Action{Type: DrawDiscard}))
	assert.Equal(t, want, total())
}
