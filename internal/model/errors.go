package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session is full")
	ErrSessionExists    = errors.New("session already exists")
	ErrConcurrentUpdate = errors.New("session was modified concurrently")

	// Turn errors
	ErrNotSessionMember = errors.New("player is not a member of this session")
	ErrNotPlayerTurn    = errors.New("not this player's turn")
	ErrOpponentMissing  = errors.New("session has no opponent yet")
	ErrStrikePending    = errors.New("a strike is already awaiting its result")
	ErrNoPendingStrike  = errors.New("no strike is awaiting a result")
	ErrStrikeMismatch   = errors.New("result does not match the pending strike")
	ErrInvalidResult    = errors.New("strike result must be hit or miss")
	ErrInvalidPosition  = errors.New("invalid board position")

	// Connection errors
	ErrAlreadyJoined  = errors.New("connection has already joined a session")
	ErrPeerNotBound   = errors.New("player has no live connection")
	ErrSendBufferFull = errors.New("connection send buffer is full")
	ErrConnClosed     = errors.New("connection is closed")
)
