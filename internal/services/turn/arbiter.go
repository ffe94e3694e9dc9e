package turn

import (
	"github.com/mcoot/battleship-go/internal/model"
)

// Arbiter decides who may strike and who strikes next. It holds no state of
// its own and never touches storage; callers run it inside a session update.
//
// The turn only changes hands on a miss: a hit keeps the turn with the
// striker, which is the usual battleship rule.
type Arbiter struct {
	enforceTurns bool
}

// New creates an Arbiter. With enforceTurns off any session member may strike.
func New(enforceTurns bool) *Arbiter {
	return &Arbiter{enforceTurns: enforceTurns}
}

// EnforcesTurns reports whether strikes are restricted to the turn owner
func (a *Arbiter) EnforcesTurns() bool {
	return a.enforceTurns
}

// CanStrike returns true if the player may submit the next strike
func (a *Arbiter) CanStrike(session *model.Session, playerID model.PlayerID) bool {
	return a.CheckStrike(session, playerID) == nil
}

// CheckStrike explains why a strike is or isn't allowed
func (a *Arbiter) CheckStrike(session *model.Session, playerID model.PlayerID) error {
	if !session.HasPlayer(playerID) {
		return model.ErrNotSessionMember
	}
	if a.enforceTurns && session.TurnOwner != playerID {
		return model.ErrNotPlayerTurn
	}
	if len(session.Players) < model.MaxPlayers {
		return model.ErrOpponentMissing
	}
	if session.Pending != nil {
		return model.ErrStrikePending
	}
	return nil
}

// AdvanceTurn hands the turn to the striker's opponent and returns them
func (a *Arbiter) AdvanceTurn(session *model.Session, striker model.PlayerID) (model.PlayerID, error) {
	if len(session.Players) != model.MaxPlayers {
		return "", model.ErrOpponentMissing
	}
	next := session.Opponent(striker)
	if next == "" {
		return "", model.ErrNotSessionMember
	}
	session.TurnOwner = next
	return next, nil
}

// ApplyResult settles a strike outcome and returns the turn owner afterwards,
// plus whether the turn changed hands
func (a *Arbiter) ApplyResult(session *model.Session, striker model.PlayerID, result model.StrikeResult) (model.PlayerID, bool, error) {
	switch result {
	case model.StrikeResultHit:
		session.TurnOwner = striker
		return striker, false, nil
	case model.StrikeResultMiss:
		next, err := a.AdvanceTurn(session, striker)
		if err != nil {
			return "", false, err
		}
		return next, true, nil
	default:
		return "", false, model.ErrInvalidResult
	}
}
