package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dingxinghu/Scat31/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	roomCode  string
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	svc       *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger zerolog.Logger, svc *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.With().Str("component", "conn").Logger(),
		ctx:    ctx,
		cancel: cancel,
		svc:    svc,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done exposes the connection lifetime for cleanup.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears the connection down. It only cancels and closes: Send may
// trigger it from inside a room broadcast, which runs under the room lock,
// so the room detach happens on the Done watcher goroutine instead.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for delivery to the client.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown.
			c.logger.Debug().Interface("recovered", r).Msg("Send on closed connection")
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn().Msg("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// PlayerID returns the seated player id, if any.
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// RoomCode returns the joined room code, if any.
func (c *Connection) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

func (c *Connection) setRoom(code, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
	c.playerID = playerID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("WebSocket error")
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error().Err(err).Msg("Failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches one inbound message. Untyped payloads are parsed
// into typed requests here; the engine only ever sees validated actions.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug().Str("type", msg.Type.String()).Str("player", c.PlayerID()).Msg("Received message")

	switch msg.Type {
	case MessageTypeCreateRoom:
		c.handleCreateRoom(msg)
	case MessageTypeJoinRoom:
		c.handleJoinRoom(msg)
	case MessageTypeStartGame:
		c.replyOnError(c.svc.StartGame(c.RoomCode(), c.PlayerID()))
	case MessageTypeAction:
		c.handleAction(msg)
	case MessageTypeLeaveRoom:
		c.handleLeaveRoom()
	case MessageTypeNextHand:
		c.replyOnError(c.svc.NextHand(c.RoomCode(), c.PlayerID()))
	case MessageTypeRematch:
		c.replyOnError(c.svc.Rematch(c.RoomCode(), c.PlayerID()))
	case MessageTypeLeaderboard:
		c.handleLeaderboard(msg)
	default:
		c.sendError("unknown_message", "Unknown message type")
	}
}

func (c *Connection) handleCreateRoom(msg *Message) {
	if c.RoomCode() != "" {
		c.sendError("already_in_room", "Leave your current room first")
		return
	}
	var data CreateRoomData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("invalid_message", "Failed to parse create_room data")
		return
	}

	code, playerID, view, err := c.svc.CreateRoom(data, c)
	if err != nil {
		c.replyOnError(err)
		return
	}
	c.setRoom(code, playerID)

	reply, err := NewMessage(MessageTypeRoomCreated, RoomCreatedData{
		RoomCode: code,
		PlayerID: playerID,
		View:     view,
	})
	if err != nil {
		return
	}
	_ = c.Send(reply)
}

func (c *Connection) handleJoinRoom(msg *Message) {
	if c.RoomCode() != "" {
		c.sendError("already_in_room", "Leave your current room first")
		return
	}
	var data JoinRoomData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("invalid_message", "Failed to parse join_room data")
		return
	}

	playerID, spectator, view, err := c.svc.JoinRoom(data, c)
	if err != nil {
		c.replyOnError(err)
		return
	}
	c.setRoom(data.RoomCode, playerID)

	reply, err := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomCode:  data.RoomCode,
		PlayerID:  playerID,
		Spectator: spectator,
		View:      view,
	})
	if err != nil {
		return
	}
	_ = c.Send(reply)
}

func (c *Connection) handleAction(msg *Message) {
	var data ActionData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("invalid_message", "Failed to parse action data")
		return
	}
	action, err := data.GameAction()
	if err != nil {
		c.replyOnError(err)
		return
	}
	c.replyOnError(c.svc.HandleAction(c.RoomCode(), c.PlayerID(), action))
}

// handleLeaveRoom detaches the client from its room without closing the
// connection, freeing it to create or join another room.
func (c *Connection) handleLeaveRoom() {
	code := c.RoomCode()
	if code == "" {
		c.sendError("not_in_room", "You are not in a room")
		return
	}
	c.svc.Leave(code, c.PlayerID(), c)
	c.setRoom("", "")
}

func (c *Connection) handleLeaderboard(msg *Message) {
	var data LeaderboardRequestData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse leaderboard request")
			return
		}
	}

	entries, err := c.svc.Leaderboard(c.ctx, data.Limit)
	if err != nil {
		c.sendError("leaderboard_unavailable", "Leaderboard is not available")
		return
	}
	reply, err := NewMessage(MessageTypeLeaderboardData, LeaderboardData{Entries: entries})
	if err != nil {
		return
	}
	_ = c.Send(reply)
}

// replyOnError reports a failed request back to the client. Rule rejections
// keep their reason; anything else is reported generically since the room
// has already been torn down.
func (c *Connection) replyOnError(err error) {
	if err == nil {
		return
	}
	if game.IsRuleError(err) {
		c.sendError("illegal_action", err.Error())
		return
	}
	c.logger.Error().Err(err).Str("room", c.RoomCode()).Msg("Fatal room error")
	c.sendError("internal_error", "Internal error")
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = c.Send(msg)
}
