package protocol

import (
	"encoding/json"

	"github.com/mcoot/battleship-go/internal/model"
)

// MessageType identifies the kind of message carried by an Envelope
type MessageType string

const (
	// Client to server
	TypeCreateSession MessageType = "createSession"
	TypeJoinSession   MessageType = "joinSession"
	TypeStrike        MessageType = "strike"
	TypeStrikeResult  MessageType = "strikeResult"

	// Server to client (strike and strikeResult are relayed under their own names)
	TypeWelcome            MessageType = "welcome"
	TypeSessionCreated     MessageType = "sessionCreated"
	TypeSessionJoined      MessageType = "sessionJoined"
	TypeSessionFull        MessageType = "sessionFull"
	TypePlayerJoined       MessageType = "playerJoined"
	TypeChance             MessageType = "chance"
	TypeInvalidStrike      MessageType = "invalidStrike"
	TypeError              MessageType = "error"
	TypeDeliveryFailed     MessageType = "deliveryFailed"
	TypePlayerDisconnected MessageType = "playerDisconnected"
)

// Envelope is the wire format of every message in both directions
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound messages

// Inbound is implemented by every message a client may send
type Inbound interface {
	Kind() MessageType
}

// CreateSession asks the server for a new empty session
type CreateSession struct{}

// JoinSession asks to be paired into an existing session
type JoinSession struct {
	SessionID model.SessionID
}

// Strike fires at the opponent's board
type Strike struct {
	SessionID model.SessionID
	PlayerID  model.PlayerID
	Position  model.Position
}

// StrikeResult reports whether the opponent's strike hit the reporter's board
type StrikeResult struct {
	SessionID model.SessionID
	PlayerID  model.PlayerID
	Position  model.Position
	Result    model.StrikeResult
}

func (CreateSession) Kind() MessageType { return TypeCreateSession }
func (JoinSession) Kind() MessageType   { return TypeJoinSession }
func (Strike) Kind() MessageType        { return TypeStrike }
func (StrikeResult) Kind() MessageType  { return TypeStrikeResult }

// Outbound messages

// Outbound is implemented by every message the server sends
type Outbound interface {
	Kind() MessageType
}

// Welcome greets a freshly opened connection
type Welcome struct {
	Message string `json:"message"`
}

// SessionCreated answers createSession
type SessionCreated struct {
	SessionID model.SessionID `json:"sessionId"`
}

// SessionJoined confirms a join and hands out the new player id
type SessionJoined struct {
	SessionID model.SessionID `json:"sessionId"`
	PlayerID  model.PlayerID  `json:"playerId"`
}

// SessionFull rejects a join to a full or unknown session
type SessionFull struct{}

// PlayerJoined tells the waiting player that an opponent arrived
type PlayerJoined struct {
	PlayerID model.PlayerID `json:"playerId"`
	Chance   bool           `json:"chance"`
}

// Chance tells a player whether they hold the turn
type Chance struct {
	PlayerID model.PlayerID `json:"playerId"`
	Chance   bool           `json:"chance"`
}

// StrikeRelay forwards a strike to the defender
type StrikeRelay struct {
	Row      int            `json:"row"`
	Col      int            `json:"col"`
	PlayerID model.PlayerID `json:"playerId"`
}

// StrikeResultRelay forwards the defender's result to the striker
type StrikeResultRelay struct {
	Row      int                `json:"row"`
	Col      int                `json:"col"`
	Result   model.StrikeResult `json:"result"`
	PlayerID model.PlayerID     `json:"playerId"`
}

// InvalidStrike rejects an illegal strike
type InvalidStrike struct {
	Message string `json:"message"`
}

// Error reports a malformed or rejected message
type Error struct {
	Message string `json:"message"`
}

// DeliveryFailed tells the sender that a message could not reach a player
type DeliveryFailed struct {
	PlayerID model.PlayerID `json:"playerId"`
	Type     MessageType    `json:"type"`
}

// PlayerDisconnected tells a player that their opponent's connection closed
type PlayerDisconnected struct {
	PlayerID model.PlayerID `json:"playerId"`
}

func (Welcome) Kind() MessageType            { return TypeWelcome }
func (SessionCreated) Kind() MessageType     { return TypeSessionCreated }
func (SessionJoined) Kind() MessageType      { return TypeSessionJoined }
func (SessionFull) Kind() MessageType        { return TypeSessionFull }
func (PlayerJoined) Kind() MessageType       { return TypePlayerJoined }
func (Chance) Kind() MessageType             { return TypeChance }
func (StrikeRelay) Kind() MessageType        { return TypeStrike }
func (StrikeResultRelay) Kind() MessageType  { return TypeStrikeResult }
func (InvalidStrike) Kind() MessageType      { return TypeInvalidStrike }
func (Error) Kind() MessageType              { return TypeError }
func (DeliveryFailed) Kind() MessageType     { return TypeDeliveryFailed }
func (PlayerDisconnected) Kind() MessageType { return TypePlayerDisconnected }
