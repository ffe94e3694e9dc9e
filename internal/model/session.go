package model

import "time"

// SessionID uniquely identifies a game session
type SessionID string

// PlayerID uniquely identifies a player within a session
type PlayerID string

// MaxPlayers is the number of players a session pairs together
const MaxPlayers = 2

// SessionState represents the current phase of a session
type SessionState string

const (
	SessionStateEmpty   SessionState = "empty"   // Created, nobody has joined
	SessionStateWaiting SessionState = "waiting" // One player waiting for an opponent
	SessionStateActive  SessionState = "active"  // Both players present
)

// Session pairs two players for a single game of battleship
type Session struct {
	ID SessionID

	// Players in join order; the first joiner holds the opening turn
	Players []PlayerID

	// TurnOwner is the player allowed to strike next, empty before anyone joins
	TurnOwner PlayerID

	// Pending is the strike awaiting a result from the defender, nil if none
	Pending *PendingStrike

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates an empty session
func NewSession(id SessionID, now time.Time) *Session {
	return &Session{
		ID:        id,
		Players:   []PlayerID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle phase from the player list
func (s *Session) State() SessionState {
	switch len(s.Players) {
	case 0:
		return SessionStateEmpty
	case 1:
		return SessionStateWaiting
	default:
		return SessionStateActive
	}
}

// IsFull returns true if no more players can join
func (s *Session) IsFull() bool {
	return len(s.Players) >= MaxPlayers
}

// HasPlayer returns true if the player is a member of the session
func (s *Session) HasPlayer(playerID PlayerID) bool {
	for _, p := range s.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// Opponent returns the other member of the session, or "" if there is none
func (s *Session) Opponent(playerID PlayerID) PlayerID {
	if !s.HasPlayer(playerID) {
		return ""
	}
	for _, p := range s.Players {
		if p != playerID {
			return p
		}
	}
	return ""
}

// Clone returns a deep copy so callers can't mutate stored state
func (s *Session) Clone() *Session {
	c := *s
	c.Players = make([]PlayerID, len(s.Players))
	copy(c.Players, s.Players)
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	return &c
}
