package response

import (
	"time"

	"github.com/mcoot/battleship-go/internal/model"
)

// Health is the health check response
type Health struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// PendingStrike is a strike awaiting its result
type PendingStrike struct {
	Striker  string    `json:"striker"`
	Defender string    `json:"defender"`
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	StruckAt time.Time `json:"struck_at"`
}

// Session is a snapshot of a session
type Session struct {
	ID            string         `json:"id"`
	State         string         `json:"state"`
	Players       []string       `json:"players"`
	TurnOwner     string         `json:"turn_owner,omitempty"`
	PendingStrike *PendingStrike `json:"pending_strike,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SessionFromModel converts a model.Session to a response Session
func SessionFromModel(s *model.Session) Session {
	players := make([]string, len(s.Players))
	for i, p := range s.Players {
		players[i] = string(p)
	}

	resp := Session{
		ID:        string(s.ID),
		State:     string(s.State()),
		Players:   players,
		TurnOwner: string(s.TurnOwner),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}

	if s.Pending != nil {
		resp.PendingStrike = &PendingStrike{
			Striker:  string(s.Pending.Striker),
			Defender: string(s.Pending.Defender),
			Row:      s.Pending.Position.Row,
			Col:      s.Pending.Position.Col,
			StruckAt: s.Pending.StruckAt,
		}
	}

	return resp
}
