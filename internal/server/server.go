package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Server accepts WebSocket clients and hands them to the game service.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]struct{}
	logger      zerolog.Logger
	mu          sync.Mutex
	httpServer  *http.Server
	svc         *GameService
}

// NewServer creates a new WebSocket server
func NewServer(logger zerolog.Logger, svc *GameService) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Rooms are join-by-code; origin checking is left to a
				// fronting proxy in deployments that need it.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]struct{}),
		logger:      logger.With().Str("component", "server").Logger(),
		svc:         svc,
	}
}

// Start serves WebSocket connections on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.mu.Lock()
	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("Starting WebSocket server")
	return srv.ListenAndServe()
}

// Shutdown stops the HTTP listener and closes every client connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]struct{})
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	client := NewConnection(conn, s.logger, s.svc)

	s.mu.Lock()
	s.connections[client] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info().Int("total", total).Msg("Client connected")

	client.Start()

	go func() {
		<-client.Done()
		// Detach from the room here rather than in Close: Close can fire
		// inside a room broadcast that already holds the room lock.
		if code := client.RoomCode(); code != "" {
			s.svc.Leave(code, client.PlayerID(), client)
		}
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info().Int("total", total).Msg("Client disconnected")
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
