package game

// Rules are the per-room table rules, immutable after room creation.
type Rules struct {
	// StartingLives is the number of lives each player begins with.
	StartingLives int `json:"starting_lives"`

	// AllowKnockAnyScore permits knocking regardless of hand value. When
	// false, a knock requires a hand value of at least KnockMinScore.
	AllowKnockAnyScore bool `json:"allow_knock_any_score"`

	// KnockMinScore is the minimum hand value required to knock when
	// AllowKnockAnyScore is false.
	KnockMinScore int `json:"knock_min_score"`

	// ThreeOfAKindValue is the fixed score for a three-of-a-kind hand.
	// Zero disables the override and the hand scores naturally. The 30.5
	// default outranks every natural hand except an exact 31, and never
	// triggers the immediate-31 ending.
	ThreeOfAKindValue float64 `json:"three_of_a_kind_value"`
}

// DefaultRules returns the standard table rules.
func DefaultRules() Rules {
	return Rules{
		StartingLives:      3,
		AllowKnockAnyScore: true,
		KnockMinScore:      17,
		ThreeOfAKindValue:  30.5,
	}
}

// Validate checks that the rules are playable.
func (r Rules) Validate() error {
	if r.StartingLives < 1 {
		return &RuleError{"starting lives must be at least 1"}
	}
	if !r.AllowKnockAnyScore && r.KnockMinScore < 1 {
		return &RuleError{"knock minimum score must be at least 1"}
	}
	return nil
}
