package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeCreateRoom  MessageType = "create_room"
	MessageTypeJoinRoom    MessageType = "join_room"
	MessageTypeStartGame   MessageType = "start_game"
	MessageTypeAction      MessageType = "action"
	MessageTypeLeaveRoom   MessageType = "leave_room"
	MessageTypeNextHand    MessageType = "next_hand"
	MessageTypeRematch     MessageType = "rematch"
	MessageTypeLeaderboard MessageType = "leaderboard"

	// Server to client messages
	MessageTypeRoomCreated     MessageType = "room_created"
	MessageTypeRoomJoined      MessageType = "room_joined"
	MessageTypeGameState       MessageType = "game_state"
	MessageTypeRoomClosed      MessageType = "room_closed"
	MessageTypeError           MessageType = "error"
	MessageTypeLeaderboardData MessageType = "leaderboard_data"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
