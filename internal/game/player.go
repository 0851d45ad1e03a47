package game

import "github.com/dingxinghu/Scat31/internal/deck"

// SeatType identifies whether a seat is played by a person or the CPU policy.
type SeatType int

const (
	Human SeatType = iota
	CPU
)

// String returns the string representation of a seat type
func (t SeatType) String() string {
	switch t {
	case Human:
		return "human"
	case CPU:
		return "cpu"
	default:
		return "?"
	}
}

// Player is one seat at the table. Seat order is fixed for the lifetime of
// the room; eliminated seats stay in the list and are skipped by turn
// advancement.
type Player struct {
	ID         string
	Name       string
	Type       SeatType
	Hand       []deck.Card
	Lives      int
	Eliminated bool
}

func (p *Player) holds(cardID int) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
