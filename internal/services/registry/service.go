package registry

import (
	"log/slog"
	"sync"

	"github.com/mcoot/battleship-go/internal/model"
)

// Conn is a live outbound delivery handle. Send must not block.
type Conn interface {
	ID() string
	Send(payload []byte) error
}

// Binding ties a player to the connection currently serving them
type Binding struct {
	PlayerID  model.PlayerID
	SessionID model.SessionID
	Conn      Conn
}

// Service maps players to their live connections and back
type Service struct {
	mu       sync.RWMutex
	byPlayer map[model.PlayerID]Binding
	byConn   map[string]model.PlayerID
	logger   *slog.Logger
}

// New creates an empty registry
func New(logger *slog.Logger) *Service {
	return &Service{
		byPlayer: make(map[model.PlayerID]Binding),
		byConn:   make(map[string]model.PlayerID),
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Bind records that conn now serves playerID. A connection serves at most
// one player; binding it a second time fails with model.ErrAlreadyJoined.
func (s *Service) Bind(playerID model.PlayerID, sessionID model.SessionID, conn Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byConn[conn.ID()]; ok && existing != playerID {
		return model.ErrAlreadyJoined
	}

	// A player has one handle at a time; drop any stale reverse entry
	if old, ok := s.byPlayer[playerID]; ok && old.Conn.ID() != conn.ID() {
		delete(s.byConn, old.Conn.ID())
	}

	s.byPlayer[playerID] = Binding{PlayerID: playerID, SessionID: sessionID, Conn: conn}
	s.byConn[conn.ID()] = playerID

	s.logger.Debug("connection bound",
		slog.String("conn_id", conn.ID()),
		slog.String("player_id", string(playerID)),
		slog.String("session_id", string(sessionID)))
	return nil
}

// Unbind removes whatever binding the connection holds
func (s *Service) Unbind(connID string) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playerID, ok := s.byConn[connID]
	if !ok {
		return Binding{}, false
	}
	delete(s.byConn, connID)

	binding := s.byPlayer[playerID]
	delete(s.byPlayer, playerID)

	s.logger.Debug("connection unbound",
		slog.String("conn_id", connID),
		slog.String("player_id", string(playerID)))
	return binding, true
}

// Resolve returns the live connection for a player
func (s *Service) Resolve(playerID model.PlayerID) (Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	return b.Conn, true
}

// BindingFor returns the binding held by a connection
func (s *Service) BindingFor(connID string) (Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.byConn[connID]
	if !ok {
		return Binding{}, false
	}
	return s.byPlayer[playerID], true
}

// Send delivers a payload to a player's live connection
func (s *Service) Send(playerID model.PlayerID, payload []byte) error {
	conn, ok := s.Resolve(playerID)
	if !ok {
		return model.ErrPeerNotBound
	}
	return conn.Send(payload)
}

// Count returns the number of bound players
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPlayer)
}
