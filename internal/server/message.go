package server

import (
	"encoding/json"
	"time"

	"github.com/dingxinghu/Scat31/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

// CreateRoomData opens a new room seated by the host plus CPU opponents.
type CreateRoomData struct {
	Name       string         `json:"name"`
	CPUCount   int            `json:"cpu_count"`
	Difficulty string         `json:"difficulty,omitempty"`
	Rules      *RulesOverride `json:"rules,omitempty"`
}

// RulesOverride carries optional per-room rule knobs; nil fields keep the
// server defaults.
type RulesOverride struct {
	StartingLives      *int     `json:"starting_lives,omitempty"`
	AllowKnockAnyScore *bool    `json:"allow_knock_any_score,omitempty"`
	KnockMinScore      *int     `json:"knock_min_score,omitempty"`
	ThreeOfAKindValue  *float64 `json:"three_of_a_kind_value,omitempty"`
}

// Apply merges the overrides onto base.
func (o *RulesOverride) Apply(base game.Rules) game.Rules {
	if o == nil {
		return base
	}
	if o.StartingLives != nil {
		base.StartingLives = *o.StartingLives
	}
	if o.AllowKnockAnyScore != nil {
		base.AllowKnockAnyScore = *o.AllowKnockAnyScore
	}
	if o.KnockMinScore != nil {
		base.KnockMinScore = *o.KnockMinScore
	}
	if o.ThreeOfAKindValue != nil {
		base.ThreeOfAKindValue = *o.ThreeOfAKindValue
	}
	return base
}

// JoinRoomData is sent to join an existing room by code.
type JoinRoomData struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

// ActionData is a player intent for the current hand.
type ActionData struct {
	Action string `json:"action"` // draw_stock, draw_discard, discard, knock
	CardID int    `json:"card_id,omitempty"`
}

// GameAction converts the wire action into the engine's typed action.
func (d ActionData) GameAction() (game.Action, error) {
	switch d.Action {
	case "draw_stock":
		return game.Action{Type: game.DrawStock}, nil
	case "draw_discard":
		return game.Action{Type: game.DrawDiscard}, nil
	case "discard":
		return game.Action{Type: game.Discard, CardID: d.CardID}, nil
	case "knock":
		return game.Action{Type: game.Knock}, nil
	default:
		return game.Action{}, game.ErrUnknownAction
	}
}

// LeaderboardRequestData asks for the top winners.
type LeaderboardRequestData struct {
	Limit int `json:"limit,omitempty"`
}

// Server → Client Messages

// RoomCreatedData confirms room creation to the host.
type RoomCreatedData struct {
	RoomCode string    `json:"room_code"`
	PlayerID string    `json:"player_id"`
	View     game.View `json:"view"`
}

// RoomJoinedData confirms a join. Spectator is true when the room had
// already started and the client only receives the redacted spectator view.
type RoomJoinedData struct {
	RoomCode  string    `json:"room_code"`
	PlayerID  string    `json:"player_id,omitempty"`
	Spectator bool      `json:"spectator"`
	View      game.View `json:"view"`
}

// GameStateData is the per-viewer snapshot pushed after every state change.
type GameStateData struct {
	View game.View `json:"view"`
}

// ErrorData reports a rejected request.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomClosedData tells clients their room is gone.
type RoomClosedData struct {
	RoomCode string `json:"room_code"`
	Reason   string `json:"reason"`
}

// LeaderboardData returns the top winners.
type LeaderboardData struct {
	Entries []LeaderboardEntry `json:"entries"`
}
