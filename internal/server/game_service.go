package server

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dingxinghu/Scat31/internal/cpu"
	"github.com/dingxinghu/Scat31/internal/game"
	"github.com/dingxinghu/Scat31/internal/roomid"
)

const (
	// maxCPUIterations bounds the automated-turn loop per state change. A
	// loop that hits the cap, or a CPU action that makes no progress, is a
	// logic defect and closes the room.
	maxCPUIterations = 50

	// maxCPUOpponents is the most CPU seats a room may be created with.
	maxCPUOpponents = 8
)

// GameService owns the room registry and serializes all game access: every
// intent locks its room, applies, drives CPU seats until a human must act,
// and pushes fresh views.
type GameService struct {
	logger zerolog.Logger
	config *Config
	clock  quartz.Clock
	board  *Leaderboard
	ids    *roomid.Generator
	rng    *rand.Rand

	mu    sync.RWMutex
	rooms map[string]*room
}

// NewGameService creates a game service. rng seeds new rooms' deals; board
// may be nil to disable the leaderboard.
func NewGameService(logger zerolog.Logger, config *Config, clock quartz.Clock, board *Leaderboard, rng *rand.Rand) *GameService {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &GameService{
		logger: logger.With().Str("component", "game_service").Logger(),
		config: config,
		clock:  clock,
		board:  board,
		ids:    roomid.NewGenerator(nil),
		rng:    rng,
		rooms:  make(map[string]*room),
	}
}

// CreateRoom opens a room seated by the host plus the requested CPU
// opponents and, when at least one opponent is present, deals the first
// hand. It returns the room code, the host's player id, and the host's view.
func (s *GameService) CreateRoom(req CreateRoomData, sink Sink) (string, string, game.View, error) {
	if req.Name == "" {
		return "", "", game.View{}, &game.RuleError{Reason: "a display name is required"}
	}
	if req.CPUCount < 0 || req.CPUCount > maxCPUOpponents {
		return "", "", game.View{}, &game.RuleError{Reason: fmt.Sprintf("cpu count must be between 0 and %d", maxCPUOpponents)}
	}
	diff := s.config.DefaultDifficulty()
	if req.Difficulty != "" {
		var err error
		diff, err = cpu.ParseDifficulty(req.Difficulty)
		if err != nil {
			return "", "", game.View{}, &game.RuleError{Reason: err.Error()}
		}
	}

	rules := req.Rules.Apply(s.config.GameRules())
	code := s.ids.Generate()

	g, err := game.New(code, rules, s.rng.Int63())
	if err != nil {
		return "", "", game.View{}, err
	}

	hostID := uuid.NewString()
	if _, err := g.AddPlayer(hostID, req.Name, game.Human); err != nil {
		return "", "", game.View{}, err
	}
	for i := 0; i < req.CPUCount; i++ {
		id := fmt.Sprintf("cpu-%s", uuid.NewString()[:8])
		name := fmt.Sprintf("CPU %d", i+1)
		if _, err := g.AddPlayer(id, name, game.CPU); err != nil {
			return "", "", game.View{}, err
		}
	}

	r := newRoom(code, hostID, g, cpu.New(diff))
	r.attach(hostID, sink)

	s.mu.Lock()
	s.rooms[code] = r
	s.mu.Unlock()

	s.logger.Info().
		Str("room", code).
		Str("host", req.Name).
		Int("cpu_count", req.CPUCount).
		Str("difficulty", diff.String()).
		Msg("Room created")

	r.mu.Lock()
	defer r.mu.Unlock()

	// Solo hosts wait for more humans; everyone else starts playing now.
	if req.CPUCount > 0 {
		if err := s.startLocked(r); err != nil {
			return "", "", game.View{}, err
		}
	}
	return code, hostID, g.View(hostID), nil
}

// JoinRoom seats a player in an open room, or attaches them as a spectator
// once the game has started or the table is full.
func (s *GameService) JoinRoom(req JoinRoomData, sink Sink) (string, bool, game.View, error) {
	r, err := s.room(req.RoomCode)
	if err != nil {
		return "", false, game.View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", false, game.View{}, &game.RuleError{Reason: "the room is closed"}
	}

	if r.game.Started() || len(r.game.Players()) >= game.MaxSeats {
		r.attach("", sink)
		s.logger.Info().Str("room", r.code).Str("name", req.Name).Msg("Spectator joined")
		return "", true, r.game.View(""), nil
	}

	if req.Name == "" {
		return "", false, game.View{}, &game.RuleError{Reason: "a display name is required"}
	}
	playerID := uuid.NewString()
	if _, err := r.game.AddPlayer(playerID, req.Name, game.Human); err != nil {
		return "", false, game.View{}, err
	}
	r.attach(playerID, sink)
	r.broadcastState()
	s.logger.Info().Str("room", r.code).Str("name", req.Name).Msg("Player joined")
	return playerID, false, r.game.View(playerID), nil
}

// StartGame deals the first hand of a waiting room. Host only.
func (s *GameService) StartGame(code, playerID string) error {
	r, err := s.room(code)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if playerID != r.hostID {
		return &game.RuleError{Reason: "only the host can start the game"}
	}
	if r.game.Started() {
		return game.ErrGameStarted
	}
	if err := s.startLocked(r); err != nil {
		return err
	}
	r.broadcastState()
	return nil
}

// startLocked deals the first hand and runs the opening CPU turns. Callers
// hold r.mu.
func (s *GameService) startLocked(r *room) error {
	if err := r.game.StartHand(); err != nil {
		return err
	}
	r.epoch++
	if err := s.runCPUTurns(r); err != nil {
		return err
	}
	s.afterChange(r)
	return nil
}

// HandleAction applies one player intent and everything that follows from
// it: CPU turns, view broadcasts, the next turn timer, and win recording.
func (s *GameService) HandleAction(code, playerID string, action game.Action) error {
	r, err := s.room(code)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return &game.RuleError{Reason: "the room is closed"}
	}

	if err := r.game.Apply(playerID, action); err != nil {
		if game.IsRuleError(err) {
			return err
		}
		s.closeLocked(r, "internal error")
		return err
	}
	r.epoch++

	if err := s.runCPUTurns(r); err != nil {
		return err
	}
	r.broadcastState()
	s.afterChange(r)
	return nil
}

// NextHand rotates the dealer and deals the next hand.
func (s *GameService) NextHand(code, playerID string) error {
	return s.control(code, playerID, func(r *room) error { return r.game.NextHand() })
}

// Rematch resets lives and restarts the game from seat 0.
func (s *GameService) Rematch(code, playerID string) error {
	return s.control(code, playerID, func(r *room) error { return r.game.Rematch() })
}

func (s *GameService) control(code, playerID string, op func(*room) error) error {
	r, err := s.room(code)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return &game.RuleError{Reason: "the room is closed"}
	}
	if _, ok := r.seats[playerID]; !ok {
		return game.ErrUnknownPlayer
	}

	if err := op(r); err != nil {
		if game.IsRuleError(err) {
			return err
		}
		s.closeLocked(r, "internal error")
		return err
	}
	r.epoch++

	if err := s.runCPUTurns(r); err != nil {
		return err
	}
	r.broadcastState()
	s.afterChange(r)
	return nil
}

// Leave detaches a client. The room is closed when its last human leaves;
// the close is broadcast before the detach so the leaver hears it too.
func (s *GameService) Leave(code, playerID string, sink Sink) {
	r, err := s.room(code)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seated := r.seats[playerID]; seated && len(r.seats) == 1 && !r.closed {
		s.closeLocked(r, "all players left")
	}
	r.detach(playerID, sink)
}

// Leaderboard returns the top all-time winners.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.board.Top(ctx, limit)
}

// RoomCount returns the number of open rooms.
func (s *GameService) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *GameService) room(code string) (*room, error) {
	if err := roomid.Validate(code); err != nil {
		return nil, &game.RuleError{Reason: "invalid room code"}
	}
	s.mu.RLock()
	r, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, &game.RuleError{Reason: "room not found"}
	}
	return r, nil
}

// runCPUTurns plays every consecutive CPU seat until a human is next to act
// or the hand ends. The engine never suspends, so the whole chain runs
// synchronously under the room lock. Callers hold r.mu.
func (s *GameService) runCPUTurns(r *room) error {
	for i := 0; i < maxCPUIterations; i++ {
		current := r.game.CurrentPlayer()
		if current == nil || current.Type != game.CPU {
			return nil
		}

		beforeTurn := r.game.TurnIndex()
		beforePending := r.game.PendingDiscard()
		beforePhase := r.game.Phase()

		st, err := r.game.SeatState(current.ID)
		if err != nil {
			s.closeLocked(r, "internal error")
			return err
		}
		action := s.decideWithFallback(r, st)
		if err := r.game.Apply(current.ID, action); err != nil {
			// A rejected CPU action is a policy defect, not a user mistake.
			s.closeLocked(r, "internal error")
			return fmt.Errorf("cpu action %s rejected: %w", action.Type, err)
		}
		r.epoch++

		if r.game.TurnIndex() == beforeTurn &&
			r.game.PendingDiscard() == beforePending &&
			r.game.Phase() == beforePhase {
			s.closeLocked(r, "internal error")
			return fmt.Errorf("cpu turn stalled in room %s", r.code)
		}
	}
	s.closeLocked(r, "internal error")
	return fmt.Errorf("cpu loop exceeded %d iterations in room %s", maxCPUIterations, r.code)
}

// decideWithFallback asks the policy for an action, falling back to the
// simplest legal play if the policy proposes knocking when it cannot.
func (s *GameService) decideWithFallback(r *room, st game.SeatState) game.Action {
	action := r.policy.Decide(st)
	if action.Type == game.Knock && !st.CanKnock {
		return game.Action{Type: game.DrawStock}
	}
	return action
}

// afterChange records a finished game and arms the idle timer for a human
// turn. Callers hold r.mu.
func (s *GameService) afterChange(r *room) {
	if r.game.Phase() == game.GameOver {
		if winner := r.game.WinnerID(); winner != "" {
			if p := playerByID(r.game, winner); p != nil {
				s.recordWin(p.Name)
			}
		}
	}
	s.armTurnTimer(r)
}

func (s *GameService) recordWin(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.board.RecordWin(ctx, name); err != nil {
		s.logger.Warn().Err(err).Str("winner", name).Msg("Failed to record win")
	}
}

// armTurnTimer schedules the idle-turn auto-play for the current human seat.
// Callers hold r.mu.
func (s *GameService) armTurnTimer(r *room) {
	r.stopTimer()
	timeout := time.Duration(s.config.Server.TurnTimeoutSeconds) * time.Second
	if timeout <= 0 || r.closed {
		return
	}
	current := r.game.CurrentPlayer()
	if current == nil || current.Type != game.Human {
		return
	}

	epoch := r.epoch
	r.turnTimer = s.clock.AfterFunc(timeout, func() {
		s.onTurnTimeout(r, epoch)
	})
}

// onTurnTimeout auto-plays an idle human seat: draw from the stock if
// needed, then discard the drawn card.
func (s *GameService) onTurnTimeout(r *room, epoch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.epoch != epoch {
		return
	}
	current := r.game.CurrentPlayer()
	if current == nil || current.Type != game.Human {
		return
	}

	s.logger.Info().Str("room", r.code).Str("player", current.Name).Msg("Turn timed out, auto-playing")

	if !r.game.PendingDiscard() {
		if err := r.game.Apply(current.ID, game.Action{Type: game.DrawStock}); err != nil {
			s.closeLocked(r, "internal error")
			return
		}
		r.epoch++
	}

	st, err := r.game.SeatState(current.ID)
	if err != nil {
		s.closeLocked(r, "internal error")
		return
	}
	cardID := st.DrawnID
	if cardID < 0 || cardID == st.TookDiscardID {
		cardID = firstDiscardable(st)
	}
	if err := r.game.Apply(current.ID, game.Action{Type: game.Discard, CardID: cardID}); err != nil {
		s.closeLocked(r, "internal error")
		return
	}
	r.epoch++

	if err := s.runCPUTurns(r); err != nil {
		return
	}
	r.broadcastState()
	s.afterChange(r)
}

func firstDiscardable(st game.SeatState) int {
	for _, c := range st.Hand {
		if c.ID != st.TookDiscardID {
			return c.ID
		}
	}
	return -1
}

// closeLocked tears a room down and tells everyone. Callers hold r.mu.
func (s *GameService) closeLocked(r *room, reason string) {
	if r.closed {
		return
	}
	r.closed = true
	r.stopTimer()

	msg, err := NewMessage(MessageTypeRoomClosed, RoomClosedData{RoomCode: r.code, Reason: reason})
	if err == nil {
		r.broadcast(msg)
	}

	s.mu.Lock()
	delete(s.rooms, r.code)
	s.mu.Unlock()

	s.logger.Info().Str("room", r.code).Str("reason", reason).Msg("Room closed")
}

func playerByID(g *game.Game, id string) *game.Player {
	for _, p := range g.Players() {
		if p.ID == id {
			return p
		}
	}
	return nil
}
