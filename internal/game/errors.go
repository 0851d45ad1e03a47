package game

import (
	"errors"
	"fmt"
)

// RuleError is a validation rejection: the submitted action was illegal in
// the current turn/stage/phase. Rejections are expected during normal play,
// carry a human-readable reason, and never mutate state. Any other error
// returned by the engine is an invariant violation and is fatal for the room.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}

var (
	ErrUnknownPlayer   = &RuleError{"unknown player"}
	ErrNoHand          = &RuleError{"no hand in progress"}
	ErrNotYourTurn     = &RuleError{"not your turn"}
	ErrAlreadyKnocked  = &RuleError{"someone already knocked this hand"}
	ErrKnockTooLow     = &RuleError{"your hand is too low to knock"}
	ErrAlreadyDrew     = &RuleError{"you already drew this turn"}
	ErrMustDrawFirst   = &RuleError{"you must draw before discarding"}
	ErrCardNotHeld     = &RuleError{"you don't hold that card"}
	ErrSameCardAsTaken = &RuleError{"you can't discard the card you just took"}
	ErrDiscardEmpty    = &RuleError{"the discard pile is empty"}
	ErrNoCardsLeft     = &RuleError{"no cards left to draw"}
	ErrUnknownAction   = &RuleError{"unknown action"}
	ErrHandInProgress  = &RuleError{"the hand is still in progress"}
	ErrGameStarted     = &RuleError{"the game has already started"}
	ErrRoomFull        = &RuleError{"the room is full"}
	ErrTooFewPlayers   = &RuleError{"not enough players to deal"}
)

// IsRuleError reports whether err is a validation rejection rather than an
// invariant violation.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// invariantf builds an invariant-violation error. These indicate a logic
// defect and abort the affected room rather than being reported to players.
func invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("invariant violation: "+format, args...)
}
