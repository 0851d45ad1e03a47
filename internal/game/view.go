package game

import "github.com/dingxinghu/Scat31/internal/deck"

// viewLogLines is how much of the log tail a view carries.
const viewLogLines = 12

// CardView is the wire representation of a card.
type CardView struct {
	ID    int    `json:"id"`
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
	Label string `json:"label"`
}

func newCardView(c deck.Card) CardView {
	return CardView{ID: c.ID, Rank: c.Rank.String(), Suit: c.Suit.Code(), Label: c.String()}
}

func newCardViews(cards []deck.Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		out[i] = newCardView(c)
	}
	return out
}

// SeatView is one seat as a given viewer is allowed to see it. Hand and
// HandValue are populated only when the viewer is the seat itself or the
// phase reveals all hands.
type SeatView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Lives       int        `json:"lives"`
	Eliminated  bool       `json:"eliminated"`
	HandCount   int        `json:"hand_count"`
	Hand        []CardView `json:"hand,omitempty"`
	HandValue   float64    `json:"hand_value,omitempty"`
	CanAct      bool       `json:"can_act"`
	CanKnock    bool       `json:"can_knock"`
	MustDiscard bool       `json:"must_discard"`
}

// View is a per-viewer redacted snapshot of a game. A spectator view is
// produced with an empty viewer id and reveals no live hands.
type View struct {
	RoomID     string     `json:"room_id"`
	ViewerID   string     `json:"viewer_id,omitempty"`
	Rules      Rules      `json:"rules"`
	Started    bool       `json:"started"`
	Phase      string     `json:"phase"`
	Dealer     int        `json:"dealer"`
	Turn       int        `json:"turn"`
	KnockedBy  string     `json:"knocked_by,omitempty"`
	FinalTurns int        `json:"final_turns,omitempty"`
	StockCount int        `json:"stock_count"`
	DiscardTop *CardView  `json:"discard_top,omitempty"`
	Seats      []SeatView `json:"seats"`
	WinnerID   string     `json:"winner_id,omitempty"`
	Log        []string   `json:"log"`
}

// View builds the redacted snapshot of the game for one viewer.
func (g *Game) View(viewerID string) View {
	revealAll := g.phase == Showdown || g.phase == HandOver || g.phase == GameOver
	inHand := g.phase == Playing || g.phase == Knocked

	seats := make([]SeatView, len(g.players))
	for i, p := range g.players {
		sv := SeatView{
			ID:         p.ID,
			Name:       p.Name,
			Type:       p.Type.String(),
			Lives:      p.Lives,
			Eliminated: p.Eliminated,
			HandCount:  len(p.Hand),
		}
		if revealAll || p.ID == viewerID {
			sv.Hand = newCardViews(p.Hand)
			if len(p.Hand) == 3 {
				sv.HandValue = HandValue(p.Hand, g.rules)
			}
		}
		if inHand && g.turn == i && !p.Eliminated {
			sv.CanAct = true
			sv.MustDiscard = g.turnState != nil
		}
		// Knock eligibility is only shown to the seat itself: under a
		// minimum-score table it would leak hand strength to everyone else.
		if p.ID == viewerID {
			sv.CanKnock = g.CanKnock(p.ID) && g.turnState == nil
		}
		seats[i] = sv
	}

	v := View{
		RoomID:     g.roomID,
		ViewerID:   viewerID,
		Rules:      g.rules,
		Started:    g.started,
		Phase:      g.phase.String(),
		Dealer:     g.dealer,
		Turn:       g.turn,
		KnockedBy:  g.knockedBy,
		StockCount: len(g.stock),
		Seats:      seats,
		WinnerID:   g.winnerID,
	}
	if g.phase == Knocked {
		v.FinalTurns = g.finalTurns
	}
	if len(g.discard) > 0 {
		top := newCardView(g.discard[len(g.discard)-1])
		v.DiscardTop = &top
	}

	start := 0
	if len(g.log) > viewLogLines {
		start = len(g.log) - viewLogLines
	}
	v.Log = append([]string(nil), g.log[start:]...)
	return v
}

// SeatState is the engine-side snapshot handed to the CPU policy for its own
// seat. Unlike View it carries real cards, since the policy runs inside the
// server process.
type SeatState struct {
	PlayerID      string
	Hand          []deck.Card
	HandValue     float64
	DiscardTop    *deck.Card
	CanKnock      bool
	MustDiscard   bool
	DrawnID       int
	TookDiscardID int
	Rules         Rules
}

// SeatState returns the acting snapshot for playerID. It is only meaningful
// while a hand is in progress.
func (g *Game) SeatState(playerID string) (SeatState, error) {
	p := g.playerByID(playerID)
	if p == nil {
		return SeatState{}, ErrUnknownPlayer
	}
	st := SeatState{
		PlayerID:      playerID,
		Hand:          append([]deck.Card(nil), p.Hand...),
		HandValue:     HandValue(p.Hand, g.rules),
		CanKnock:      g.CanKnock(playerID) && g.turnState == nil,
		DrawnID:       -1,
		TookDiscardID: -1,
		Rules:         g.rules,
	}
	if len(g.discard) > 0 {
		top := g.discard[len(g.discard)-1]
		st.DiscardTop = &top
	}
	if g.CurrentPlayer() == p && g.turnState != nil {
		st.MustDiscard = true
		st.DrawnID = g.turnState.DrawnID
		st.TookDiscardID = g.turnState.TookDiscardID
	}
	return st, nil
}
