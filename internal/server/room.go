package server

import (
	"sync"

	"github.com/coder/quartz"

	"github.com/dingxinghu/Scat31/internal/cpu"
	"github.com/dingxinghu/Scat31/internal/game"
)

// Sink receives messages addressed to one client. Connections implement it;
// tests substitute in-memory fakes.
type Sink interface {
	Send(msg *Message) error
}

// room couples one game with the clients watching it. All access goes
// through mu: the engine itself does no locking.
type room struct {
	code   string
	hostID string
	game   *game.Game
	policy *cpu.Policy

	mu         sync.Mutex
	seats      map[string]Sink // playerID -> sink, seated humans only
	spectators map[Sink]struct{}

	// epoch counts applied mutations; a pending turn timer fires only if the
	// room is still at the epoch it was armed for.
	epoch     int
	turnTimer *quartz.Timer
	closed    bool
}

func newRoom(code, hostID string, g *game.Game, policy *cpu.Policy) *room {
	return &room{
		code:       code,
		hostID:     hostID,
		game:       g,
		policy:     policy,
		seats:      make(map[string]Sink),
		spectators: make(map[Sink]struct{}),
	}
}

// attach registers a sink for a seated player ("" seats a spectator).
func (r *room) attach(playerID string, sink Sink) {
	if playerID == "" {
		r.spectators[sink] = struct{}{}
		return
	}
	r.seats[playerID] = sink
}

// detach removes a client.
func (r *room) detach(playerID string, sink Sink) {
	if playerID == "" {
		delete(r.spectators, sink)
	} else {
		delete(r.seats, playerID)
	}
}

// broadcastState pushes a fresh per-viewer snapshot to every client.
// Callers hold r.mu.
func (r *room) broadcastState() {
	for playerID, sink := range r.seats {
		r.sendState(sink, playerID)
	}
	for sink := range r.spectators {
		r.sendState(sink, "")
	}
}

func (r *room) sendState(sink Sink, viewerID string) {
	msg, err := NewMessage(MessageTypeGameState, GameStateData{View: r.game.View(viewerID)})
	if err != nil {
		return
	}
	_ = sink.Send(msg)
}

// broadcast sends one message to every client in the room. Callers hold r.mu.
func (r *room) broadcast(msg *Message) {
	for _, sink := range r.seats {
		_ = sink.Send(msg)
	}
	for sink := range r.spectators {
		_ = sink.Send(msg)
	}
}

func (r *room) stopTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}
