package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/battleship-go/internal/model"
)

// ErrMalformed is returned for payloads that don't decode into a known message
var ErrMalformed = errors.New("malformed message")

// Wire shapes for inbound data. Pointers distinguish absent fields from zero.
type joinSessionData struct {
	SessionID *string `json:"sessionId"`
}

type strikeData struct {
	SessionID *string `json:"sessionId"`
	Row       *int    `json:"row"`
	Col       *int    `json:"col"`
	PlayerID  *string `json:"playerId"`
}

type strikeResultData struct {
	strikeData
	Result *string `json:"result"`
}

// Decode parses a client payload into one of the inbound message types
func Decode(payload []byte) (Inbound, error) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeCreateSession:
		return CreateSession{}, nil

	case TypeJoinSession:
		var d joinSessionData
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		if isBlank(d.SessionID) {
			return nil, missing(env.Type, "sessionId")
		}
		return JoinSession{SessionID: model.SessionID(*d.SessionID)}, nil

	case TypeStrike:
		var d strikeData
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		sessionID, playerID, pos, err := d.validate(env.Type)
		if err != nil {
			return nil, err
		}
		return Strike{SessionID: sessionID, PlayerID: playerID, Position: pos}, nil

	case TypeStrikeResult:
		var d strikeResultData
		if err := decodeData(env, &d); err != nil {
			return nil, err
		}
		sessionID, playerID, pos, err := d.validate(env.Type)
		if err != nil {
			return nil, err
		}
		if isBlank(d.Result) {
			return nil, missing(env.Type, "result")
		}
		result := model.StrikeResult(*d.Result)
		if !result.IsValid() {
			return nil, fmt.Errorf("%w: %s result must be %q or %q", ErrMalformed, env.Type, model.StrikeResultHit, model.StrikeResultMiss)
		}
		return StrikeResult{SessionID: sessionID, PlayerID: playerID, Position: pos, Result: result}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}

// DecodeEnvelope parses the outer {type, data} object without looking at data
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

// Encode wraps an outbound message in an Envelope
func Encode(msg Outbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msg.Kind(), Data: data})
}

// EncodeInbound builds a client payload; used by the CLI and tests
func EncodeInbound(msg Inbound) ([]byte, error) {
	var data any
	switch m := msg.(type) {
	case CreateSession:
		data = struct{}{}
	case JoinSession:
		data = map[string]any{"sessionId": m.SessionID}
	case Strike:
		data = map[string]any{
			"sessionId": m.SessionID,
			"row":       m.Position.Row,
			"col":       m.Position.Col,
			"playerId":  m.PlayerID,
		}
	case StrikeResult:
		data = map[string]any{
			"sessionId": m.SessionID,
			"row":       m.Position.Row,
			"col":       m.Position.Col,
			"playerId":  m.PlayerID,
			"result":    m.Result,
		}
	default:
		return nil, fmt.Errorf("unsupported message %T", msg)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msg.Kind(), Data: raw})
}

func decodeData(env Envelope, target any) error {
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return fmt.Errorf("%w: %s requires data", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformed, env.Type, err)
	}
	return nil
}

func (d strikeData) validate(t MessageType) (model.SessionID, model.PlayerID, model.Position, error) {
	switch {
	case isBlank(d.SessionID):
		return "", "", model.Position{}, missing(t, "sessionId")
	case isBlank(d.PlayerID):
		return "", "", model.Position{}, missing(t, "playerId")
	case d.Row == nil:
		return "", "", model.Position{}, missing(t, "row")
	case d.Col == nil:
		return "", "", model.Position{}, missing(t, "col")
	}

	pos := model.Position{Row: *d.Row, Col: *d.Col}
	if !pos.IsValid() {
		return "", "", model.Position{}, fmt.Errorf("%w: %s row and col must be non-negative", ErrMalformed, t)
	}
	return model.SessionID(*d.SessionID), model.PlayerID(*d.PlayerID), pos, nil
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

func missing(t MessageType, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMalformed, t, field)
}
