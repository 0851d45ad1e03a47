package game

// ActionType identifies a player intent.
type ActionType int

const (
	DrawStock ActionType = iota
	DrawDiscard
	Discard
	Knock
)

// String returns the string representation of an action type
func (t ActionType) String() string {
	switch t {
	case DrawStock:
		return "draw_stock"
	case DrawDiscard:
		return "draw_discard"
	case Discard:
		return "discard"
	case Knock:
		return "knock"
	default:
		return "?"
	}
}

// Action is a validated, strongly-typed player intent. CardID is only
// meaningful for Discard.
type Action struct {
	Type   ActionType
	CardID int
}

// Apply validates and applies one action for the acting player. It either
// performs a fully valid transition or returns an error leaving the state
// untouched: a *RuleError for an illegal action, anything else for an
// invariant violation that is fatal for the room.
func (g *Game) Apply(playerID string, action Action) error {
	p := g.playerByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if g.phase != Playing && g.phase != Knocked {
		return ErrNoHand
	}
	if g.players[g.turn].ID != playerID {
		return ErrNotYourTurn
	}

	switch action.Type {
	case Knock:
		return g.applyKnock(p)
	case DrawStock:
		return g.applyDrawStock(p)
	case DrawDiscard:
		return g.applyDrawDiscard(p)
	case Discard:
		return g.applyDiscard(p, action.CardID)
	default:
		return ErrUnknownAction
	}
}

// CanKnock reports whether the player satisfies the knock eligibility rules:
// phase PLAYING, their turn, no prior knock this hand, and either any-score
// knocking is allowed or their hand value meets the table minimum.
func (g *Game) CanKnock(playerID string) bool {
	p := g.playerByID(playerID)
	if p == nil || p.Eliminated {
		return false
	}
	if g.phase != Playing || g.knockedBy != "" {
		return false
	}
	if g.players[g.turn].ID != playerID {
		return false
	}
	if g.rules.AllowKnockAnyScore {
		return true
	}
	return HandValue(p.Hand, g.rules) >= float64(g.rules.KnockMinScore)
}

func (g *Game) applyKnock(p *Player) error {
	if g.turnState != nil {
		return ErrAlreadyDrew
	}
	if g.phase == Knocked || g.knockedBy != "" {
		return ErrAlreadyKnocked
	}
	if !g.rules.AllowKnockAnyScore &&
		HandValue(p.Hand, g.rules) < float64(g.rules.KnockMinScore) {
		return ErrKnockTooLow
	}

	g.knockedBy = p.ID
	g.phase = Knocked
	g.finalTurns = len(g.activePlayers()) - 1
	g.logf("%s knocks! Everyone gets one more turn.", p.Name)
	g.advanceTurn()
	return nil
}

func (g *Game) applyDrawStock(p *Player) error {
	if g.turnState != nil {
		return ErrAlreadyDrew
	}
	if len(g.stock) == 0 {
		if err := g.rebuildStock(); err != nil {
			return err
		}
	}
	c := g.stock[len(g.stock)-1]
	g.stock = g.stock[:len(g.stock)-1]
	p.Hand = append(p.Hand, c)
	g.turnState = &TurnState{DrawnID: c.ID, TookDiscardID: -1}
	g.logf("%s draws from the stock.", p.Name)
	return nil
}

func (g *Game) applyDrawDiscard(p *Player) error {
	if g.turnState != nil {
		return ErrAlreadyDrew
	}
	if len(g.discard) == 0 {
		return ErrDiscardEmpty
	}
	c := g.discard[len(g.discard)-1]
	g.discard = g.discard[:len(g.discard)-1]
	p.Hand = append(p.Hand, c)
	g.turnState = &TurnState{DrawnID: c.ID, TookDiscardID: c.ID}
	g.logf("%s takes the %s from the discard pile.", p.Name, c)
	return nil
}

func (g *Game) applyDiscard(p *Player, cardID int) error {
	if g.turnState == nil {
		return ErrMustDrawFirst
	}
	if cardID == g.turnState.TookDiscardID {
		return ErrSameCardAsTaken
	}
	i := p.holds(cardID)
	if i < 0 {
		return ErrCardNotHeld
	}

	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	g.discard = append(g.discard, c)
	g.logf("%s discards the %s.", p.Name, c)

	if len(p.Hand) != 3 {
		return invariantf("%s holds %d cards after discard, want 3", p.Name, len(p.Hand))
	}

	if HasExact31(p.Hand, g.rules) {
		g.logf("%s hits 31 and ends the hand!", p.Name)
		g.endWithThirtyOne(map[string]bool{p.ID: true})
		return nil
	}

	if g.phase == Knocked {
		g.finalTurns--
		if g.finalTurns <= 0 {
			g.runShowdown()
			return nil
		}
	}

	g.advanceTurn()
	return nil
}
