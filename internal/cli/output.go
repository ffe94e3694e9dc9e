package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/battleship-go/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	mu     sync.Mutex
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one server message received over the WebSocket
func (o *Output) PrintEvent(env protocol.Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		data, _ := json.Marshal(env)
		fmt.Fprintln(o.w, string(data))
		return
	}
	fmt.Fprintf(o.w, "[%s] %s\n", time.Now().Format("15:04:05"), describeEvent(env))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Session:
		o.printSession(v)
	case PlayState:
		o.printPlayState(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// PendingStrike response type
type PendingStrike struct {
	Striker  string    `json:"striker"`
	Defender string    `json:"defender"`
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	StruckAt time.Time `json:"struck_at"`
}

// Session response type (matches API)
type Session struct {
	ID            string         `json:"id"`
	State         string         `json:"state"`
	Players       []string       `json:"players"`
	TurnOwner     string         `json:"turn_owner,omitempty"`
	PendingStrike *PendingStrike `json:"pending_strike,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PlayState is the local view of an interactive play connection
type PlayState struct {
	SessionID string `json:"session_id,omitempty"`
	PlayerID  string `json:"player_id,omitempty"`
	MyTurn    bool   `json:"my_turn"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Session: %s\n", s.ID)
	fmt.Fprintf(o.w, "State: %s\n", s.State)
	if len(s.Players) == 0 {
		fmt.Fprintln(o.w, "Players: none")
	} else {
		fmt.Fprintf(o.w, "Players: %s\n", strings.Join(s.Players, ", "))
	}
	if s.TurnOwner != "" {
		fmt.Fprintf(o.w, "Turn: %s\n", s.TurnOwner)
	}
	if s.PendingStrike != nil {
		p := s.PendingStrike
		fmt.Fprintf(o.w, "Pending strike: %s -> %s at (%d,%d)\n", p.Striker, p.Defender, p.Row, p.Col)
	}
}

func (o *Output) printPlayState(p PlayState) {
	if p.SessionID == "" {
		fmt.Fprintln(o.w, "Not in a session")
		return
	}
	turn := "opponent"
	if p.MyTurn {
		turn = "you"
	}
	fmt.Fprintf(o.w, "Session: %s\n", p.SessionID)
	fmt.Fprintf(o.w, "Player: %s\n", p.PlayerID)
	fmt.Fprintf(o.w, "Turn: %s\n", turn)
}

// describeEvent renders a server message as one line of text
func describeEvent(env protocol.Envelope) string {
	switch env.Type {
	case protocol.TypeWelcome:
		var m protocol.Welcome
		if decodeInto(env, &m) {
			return m.Message
		}
	case protocol.TypeSessionCreated:
		var m protocol.SessionCreated
		if decodeInto(env, &m) {
			return fmt.Sprintf("Session created: %s", m.SessionID)
		}
	case protocol.TypeSessionJoined:
		var m protocol.SessionJoined
		if decodeInto(env, &m) {
			return fmt.Sprintf("Joined session %s as %s", m.SessionID, m.PlayerID)
		}
	case protocol.TypeSessionFull:
		return "Session is full"
	case protocol.TypePlayerJoined:
		var m protocol.PlayerJoined
		if decodeInto(env, &m) {
			return fmt.Sprintf("Opponent %s joined", m.PlayerID)
		}
	case protocol.TypeChance:
		var m protocol.Chance
		if decodeInto(env, &m) {
			if m.Chance {
				return "Your turn"
			}
			return "Opponent's turn"
		}
	case protocol.TypeStrike:
		var m protocol.StrikeRelay
		if decodeInto(env, &m) {
			return fmt.Sprintf("Incoming strike at (%d,%d) from %s; answer with hit or miss", m.Row, m.Col, m.PlayerID)
		}
	case protocol.TypeStrikeResult:
		var m protocol.StrikeResultRelay
		if decodeInto(env, &m) {
			return fmt.Sprintf("Strike at (%d,%d): %s", m.Row, m.Col, m.Result)
		}
	case protocol.TypeInvalidStrike:
		var m protocol.InvalidStrike
		if decodeInto(env, &m) {
			return fmt.Sprintf("Invalid strike: %s", m.Message)
		}
	case protocol.TypeError:
		var m protocol.Error
		if decodeInto(env, &m) {
			return fmt.Sprintf("Server error: %s", m.Message)
		}
	case protocol.TypeDeliveryFailed:
		var m protocol.DeliveryFailed
		if decodeInto(env, &m) {
			return fmt.Sprintf("Could not deliver %s to %s", m.Type, m.PlayerID)
		}
	case protocol.TypePlayerDisconnected:
		var m protocol.PlayerDisconnected
		if decodeInto(env, &m) {
			return fmt.Sprintf("Opponent %s disconnected", m.PlayerID)
		}
	}
	return fmt.Sprintf("%s %s", env.Type, string(env.Data))
}

func decodeInto(env protocol.Envelope, target any) bool {
	return json.Unmarshal(env.Data, target) == nil
}
