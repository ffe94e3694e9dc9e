package model

import "time"

// Position identifies a cell on a player's board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// IsValid returns true if both coordinates are non-negative.
// The upper bound depends on the board size, which only clients know.
func (p Position) IsValid() bool {
	return p.Row >= 0 && p.Col >= 0
}

// StrikeResult is the outcome reported by the struck player's client
type StrikeResult string

const (
	StrikeResultHit  StrikeResult = "hit"
	StrikeResultMiss StrikeResult = "miss"
)

// IsValid returns true for the known results
func (r StrikeResult) IsValid() bool {
	return r == StrikeResultHit || r == StrikeResultMiss
}

// PendingStrike is a strike relayed to the defender that has no result yet
type PendingStrike struct {
	Striker  PlayerID
	Defender PlayerID
	Position Position
	StruckAt time.Time
}
