package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dingxinghu/Scat31/internal/deck"
)

// MaxSeats is the hard cap on players per room, host included.
const MaxSeats = 9

// logKeep bounds the in-memory log; views only ever expose the tail.
const logKeep = 200

// Phase is the hand lifecycle phase of a game.
type Phase int

const (
	Playing Phase = iota
	Knocked
	Showdown
	HandOver
	GameOver
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case Playing:
		return "playing"
	case Knocked:
		return "knocked"
	case Showdown:
		return "showdown"
	case HandOver:
		return "hand_over"
	case GameOver:
		return "game_over"
	default:
		return "?"
	}
}

// TurnState is the pending draw/discard progress of the seat currently
// acting. It exists only between that seat's draw and discard; a nil
// TurnState means the acting seat has not drawn yet.
type TurnState struct {
	// DrawnID is the id of the card added to the hand this turn.
	DrawnID int
	// TookDiscardID is the id of the card taken from the discard pile this
	// turn, or -1 if the draw came from the stock. Discarding it back in the
	// same turn is illegal.
	TookDiscardID int
}

// Game is the full state of one room's game. It is mutated in place across
// hands and performs no internal locking; callers must serialize access.
type Game struct {
	roomID     string
	rules      Rules
	players    []*Player
	dealer     int
	turn       int
	phase      Phase
	knockedBy  string
	finalTurns int
	stock      []deck.Card
	discard    []deck.Card
	turnState  *TurnState
	log        []string
	winnerID   string
	seed       int64
	started    bool
}

// New creates a game for a room. Seats are added with AddPlayer before the
// first deal; every shuffle consumes and increments seed, so two rooms with
// equal seeds and equal action sequences play out identically.
func New(roomID string, rules Rules, seed int64) (*Game, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Game{
		roomID: roomID,
		rules:  rules,
		phase:  HandOver,
		seed:   seed,
	}, nil
}

// AddPlayer seats a player. Seating is only possible before the first deal.
func (g *Game) AddPlayer(id, name string, typ SeatType) (*Player, error) {
	if g.started {
		return nil, ErrGameStarted
	}
	if len(g.players) >= MaxSeats {
		return nil, ErrRoomFull
	}
	p := &Player{
		ID:    id,
		Name:  name,
		Type:  typ,
		Lives: g.rules.StartingLives,
	}
	g.players = append(g.players, p)
	return p, nil
}

// StartHand deals a fresh hand: shuffled stock under the room's next seed,
// 3 cards to each active seat round-robin starting left of the dealer, one
// card flipped as the initial discard. A dealt exact-31 ends the hand on the
// spot.
func (g *Game) StartHand() error {
	cards := deck.New(g.seed)
	g.seed++
	return g.deal(cards)
}

// NextHand rotates the deal to the next active seat and starts a new hand.
// Only legal once the current hand is over.
func (g *Game) NextHand() error {
	if g.phase != HandOver {
		return ErrHandInProgress
	}
	g.dealer = g.nextActive(g.dealer)
	return g.StartHand()
}

// Rematch resets lives and elimination for all seats and restarts the game
// from dealer seat 0. Legal in any phase.
func (g *Game) Rematch() error {
	for _, p := range g.players {
		p.Lives = g.rules.StartingLives
		p.Eliminated = false
	}
	g.dealer = 0
	g.winnerID = ""
	g.logf("--- Rematch! Everyone is back in.")
	return g.StartHand()
}

func (g *Game) deal(cards []deck.Card) error {
	active := g.activePlayers()
	if len(active) < 2 {
		return ErrTooFewPlayers
	}

	g.phase = Playing
	g.knockedBy = ""
	g.finalTurns = 0
	g.winnerID = ""
	g.turnState = nil
	for _, p := range g.players {
		p.Hand = p.Hand[:0]
	}
	g.stock = cards
	g.discard = g.discard[:0]

	// Three rounds of one card each, starting left of the dealer.
	first := g.nextActive(g.dealer)
	for round := 0; round < 3; round++ {
		seat := first
		for range active {
			c, err := g.popStock()
			if err != nil {
				return err
			}
			g.players[seat].Hand = append(g.players[seat].Hand, c)
			seat = g.nextActive(seat)
		}
	}

	up, err := g.popStock()
	if err != nil {
		return err
	}
	g.discard = append(g.discard, up)

	g.turn = first
	g.started = true
	g.logf("--- New hand. %s deals, %s flipped, %s to act.",
		g.players[g.dealer].Name, up, g.players[first].Name)

	// A dealt 31 ends the hand before anyone acts.
	dealt31 := make(map[string]bool)
	for _, p := range active {
		if HasExact31(p.Hand, g.rules) {
			dealt31[p.ID] = true
			g.logf("%s is dealt 31!", p.Name)
		}
	}
	if len(dealt31) > 0 {
		g.endWithThirtyOne(dealt31)
	}
	return nil
}

// endWithThirtyOne ends the hand immediately: every active player not
// holding an exact 31 loses a life.
func (g *Game) endWithThirtyOne(have31 map[string]bool) {
	for _, p := range g.activePlayers() {
		if !have31[p.ID] {
			g.loseLives(p, 1)
		}
	}
	g.resolveLives()
}

// popStock removes the top stock card. An empty stock here is a logic defect:
// mid-turn draws reshuffle first, and deals can never exhaust 52 cards.
func (g *Game) popStock() (deck.Card, error) {
	if len(g.stock) == 0 {
		return deck.Card{}, invariantf("stock empty mid-deal")
	}
	c := g.stock[len(g.stock)-1]
	g.stock = g.stock[:len(g.stock)-1]
	return c, nil
}

// rebuildStock turns the discard pile, minus its face-up top card, back into
// a freshly shuffled stock.
func (g *Game) rebuildStock() error {
	if len(g.discard) <= 1 {
		return ErrNoCardsLeft
	}
	top := g.discard[len(g.discard)-1]
	rest := make([]deck.Card, len(g.discard)-1)
	copy(rest, g.discard[:len(g.discard)-1])
	deck.Shuffle(rest, g.seed)
	g.seed++
	g.stock = rest
	g.discard = g.discard[:0]
	g.discard = append(g.discard, top)
	g.logf("The stock ran out; the discard pile is shuffled back in.")
	return nil
}

func (g *Game) activePlayers() []*Player {
	var active []*Player
	for _, p := range g.players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

// nextActive returns the next non-eliminated seat after from, wrapping.
func (g *Game) nextActive(from int) int {
	for i := 1; i <= len(g.players); i++ {
		seat := (from + i) % len(g.players)
		if !g.players[seat].Eliminated {
			return seat
		}
	}
	return from
}

func (g *Game) advanceTurn() {
	g.turnState = nil
	g.turn = g.nextActive(g.turn)
}

func (g *Game) playerByID(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) logf(format string, args ...interface{}) {
	g.log = append(g.log, fmt.Sprintf(format, args...))
	if len(g.log) > logKeep {
		g.log = g.log[len(g.log)-logKeep:]
	}
}

// RoomID returns the room this game belongs to.
func (g *Game) RoomID() string { return g.roomID }

// Rules returns the room's immutable rules.
func (g *Game) Rules() Rules { return g.rules }

// Phase returns the current hand phase.
func (g *Game) Phase() Phase { return g.phase }

// Started reports whether the first hand has been dealt.
func (g *Game) Started() bool { return g.started }

// WinnerID returns the winning player's id once the game is over.
func (g *Game) WinnerID() string { return g.winnerID }

// Players returns the seats in fixed seat order.
func (g *Game) Players() []*Player { return g.players }

// TurnIndex returns the current seat index.
func (g *Game) TurnIndex() int { return g.turn }

// PendingDiscard reports whether the acting seat has drawn and still owes a
// discard.
func (g *Game) PendingDiscard() bool { return g.turnState != nil }

// CurrentPlayer returns the seat whose turn it is, or nil outside of an
// in-progress hand.
func (g *Game) CurrentPlayer() *Player {
	if g.phase != Playing && g.phase != Knocked {
		return nil
	}
	return g.players[g.turn]
}

func handString(hand []deck.Card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
