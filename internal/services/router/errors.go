package router

import (
	"errors"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/protocol"
)

// Client-facing messages
const (
	MsgNotYourTurn     = "Not your turn"
	MsgWaitingOpponent = "Waiting for an opponent to join"
	MsgAwaitingResult  = "Waiting for the result of the previous strike"
	MsgInvalidPosition = "Invalid board position"
	MsgAlreadyJoined   = "Connection has already joined a session"
	MsgWrongPlayer     = "Player does not belong to this connection"
	MsgNoPendingStrike = "No strike is awaiting a result"
	MsgStrikeMismatch  = "Result does not match the pending strike"
	MsgSessionNotFound = "Session not found"
	MsgInternalError   = "Internal server error"
	MsgWelcome         = "Welcome to the battleship game!"
)

// strikeRejection maps a failed strike onto the invalidStrike message.
// Membership and turn failures share one message so a client can't probe
// which sessions exist.
func strikeRejection(err error) (protocol.Outbound, bool) {
	switch {
	case errors.Is(err, model.ErrNotPlayerTurn),
		errors.Is(err, model.ErrNotSessionMember),
		errors.Is(err, model.ErrSessionNotFound):
		return protocol.InvalidStrike{Message: MsgNotYourTurn}, true
	case errors.Is(err, model.ErrOpponentMissing):
		return protocol.InvalidStrike{Message: MsgWaitingOpponent}, true
	case errors.Is(err, model.ErrStrikePending):
		return protocol.InvalidStrike{Message: MsgAwaitingResult}, true
	case errors.Is(err, model.ErrInvalidPosition):
		return protocol.InvalidStrike{Message: MsgInvalidPosition}, true
	default:
		return nil, false
	}
}

// resultRejection maps a failed strike result onto an error message
func resultRejection(err error) (protocol.Outbound, bool) {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return protocol.Error{Message: MsgSessionNotFound}, true
	case errors.Is(err, model.ErrNotSessionMember):
		return protocol.Error{Message: MsgWrongPlayer}, true
	case errors.Is(err, model.ErrNoPendingStrike):
		return protocol.Error{Message: MsgNoPendingStrike}, true
	case errors.Is(err, model.ErrStrikeMismatch):
		return protocol.Error{Message: MsgStrikeMismatch}, true
	case errors.Is(err, model.ErrInvalidResult):
		return protocol.Error{Message: model.ErrInvalidResult.Error()}, true
	default:
		return nil, false
	}
}
