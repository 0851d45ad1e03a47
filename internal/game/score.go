package game

import "github.com/dingxinghu/Scat31/internal/deck"

// HandValue scores a 3-card hand. The value is the best same-suit point sum,
// or the best single card's points if no two cards share a suit. A
// three-of-a-kind scores the configured fixed value instead. Hands that are
// not exactly 3 cards score 0; callers must not invoke it otherwise.
func HandValue(hand []deck.Card, rules Rules) float64 {
	if len(hand) != 3 {
		return 0
	}

	if rules.ThreeOfAKindValue > 0 &&
		hand[0].Rank == hand[1].Rank && hand[1].Rank == hand[2].Rank {
		return rules.ThreeOfAKindValue
	}

	var suitSums [4]int
	best := 0
	for _, c := range hand {
		suitSums[c.Suit] += c.Rank.PointValue()
		if v := c.Rank.PointValue(); v > best {
			best = v
		}
	}
	for _, sum := range suitSums {
		if sum > best {
			best = sum
		}
	}
	return float64(best)
}

// HasExact31 reports whether the hand scores exactly 31, which ends the hand
// immediately.
func HasExact31(hand []deck.Card, rules Rules) bool {
	return HandValue(hand, rules) == 31
}

// runShowdown compares all active hands after the knocker's final turns have
// elapsed. The lowest hand loses a life; a knocker caught sole-lowest loses
// two, and a knocker tied for lowest is spared while the rest of the tie pays.
func (g *Game) runShowdown() {
	g.phase = Showdown
	g.turnState = nil

	active := g.activePlayers()
	values := make(map[string]float64, len(active))
	min := 0.0
	for i, p := range active {
		v := HandValue(p.Hand, g.rules)
		values[p.ID] = v
		g.logf("%s shows %s for %s", p.Name, handString(p.Hand), formatValue(v))
		if i == 0 || v < min {
			min = v
		}
	}

	var lowest []*Player
	knockerLowest := false
	for _, p := range active {
		if values[p.ID] == min {
			lowest = append(lowest, p)
			if p.ID == g.knockedBy {
				knockerLowest = true
			}
		}
	}

	switch {
	case len(lowest) == 1 && lowest[0].ID == g.knockedBy:
		g.logf("%s knocked with the lowest hand and loses 2 lives", lowest[0].Name)
		g.loseLives(lowest[0], 2)
	case knockerLowest:
		for _, p := range lowest {
			if p.ID != g.knockedBy {
				g.logf("%s ties the knocker for lowest and loses a life", p.Name)
				g.loseLives(p, 1)
			}
		}
	default:
		for _, p := range lowest {
			g.logf("%s has the lowest hand and loses a life", p.Name)
			g.loseLives(p, 1)
		}
	}

	g.resolveLives()
}

// loseLives deducts n lives, clamping at zero and eliminating the player.
func (g *Game) loseLives(p *Player, n int) {
	p.Lives -= n
	if p.Lives <= 0 {
		p.Lives = 0
		p.Eliminated = true
		g.logf("%s is out of the game", p.Name)
	}
}

// resolveLives re-evaluates survivors after any life-loss event. Exactly one
// survivor ends the game; otherwise the hand is over and play can continue.
func (g *Game) resolveLives() {
	g.turnState = nil

	active := g.activePlayers()
	if len(active) == 1 {
		g.winnerID = active[0].ID
		g.phase = GameOver
		g.logf("%s wins the game!", active[0].Name)
		return
	}
	g.winnerID = ""
	g.phase = HandOver
}
