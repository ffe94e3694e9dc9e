package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/battleship-go/internal/dependencies/clock"
	"github.com/mcoot/battleship-go/internal/dependencies/random"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/turn"
	"github.com/mcoot/battleship-go/internal/storage"
)

// maxIDAttempts bounds retries when a generated session id is already taken
const maxIDAttempts = 8

// ErrIDExhausted is returned if no free session id could be generated
var ErrIDExhausted = errors.New("could not allocate a unique session id")

// Controller manages the session lifecycle and turn flow
type Controller struct {
	storage storage.Storage
	arbiter *turn.Arbiter
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	arbiter *turn.Arbiter,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		arbiter: arbiter,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "session")),
	}
}

// CreateSession creates a new empty session
func (c *Controller) CreateSession(ctx context.Context) (*model.Session, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		session := model.NewSession(model.SessionID(c.random.Token()), c.clock.Now())

		err := c.storage.CreateSession(ctx, session)
		if errors.Is(err, model.ErrSessionExists) {
			continue
		}
		if err != nil {
			c.logger.Error("failed to save session", slog.String("error", err.Error()))
			return nil, err
		}

		c.logger.Info("session created", slog.String("session_id", string(session.ID)))
		return session, nil
	}

	return nil, ErrIDExhausted
}

// GetSession retrieves a session by ID
func (c *Controller) GetSession(ctx context.Context, sessionID model.SessionID) (*model.Session, error) {
	return c.storage.GetSession(ctx, sessionID)
}

// JoinSession adds a new player to a session. The first player to join
// holds the opening turn.
func (c *Controller) JoinSession(ctx context.Context, sessionID model.SessionID) (*model.Session, model.PlayerID, error) {
	playerID := model.PlayerID(c.random.Token())

	session, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if s.IsFull() {
			return model.ErrSessionFull
		}
		s.Players = append(s.Players, playerID)
		if len(s.Players) == 1 {
			s.TurnOwner = playerID
		}
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	c.logger.Info("player joined session",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(playerID)),
		slog.Int("player_count", len(session.Players)),
	)

	return session, playerID, nil
}

// BeginStrike validates a strike against the turn rules and records it as
// pending. It returns the defender the strike should be relayed to. The turn
// does not move until the defender reports the result.
func (c *Controller) BeginStrike(ctx context.Context, sessionID model.SessionID, playerID model.PlayerID, pos model.Position) (model.PlayerID, error) {
	if !pos.IsValid() {
		return "", model.ErrInvalidPosition
	}

	var defender model.PlayerID
	_, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if err := c.arbiter.CheckStrike(s, playerID); err != nil {
			return err
		}
		defender = s.Opponent(playerID)
		s.Pending = &model.PendingStrike{
			Striker:  playerID,
			Defender: defender,
			Position: pos,
			StruckAt: c.clock.Now(),
		}
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("strike accepted",
		slog.String("session_id", string(sessionID)),
		slog.String("striker", string(playerID)),
		slog.Int("row", pos.Row),
		slog.Int("col", pos.Col),
	)

	return defender, nil
}

// Resolution describes the outcome of a reported strike result
type Resolution struct {
	Session     *model.Session
	Striker     model.PlayerID
	Defender    model.PlayerID
	TurnOwner   model.PlayerID
	TurnChanged bool
}

// ResolveStrike settles the pending strike with the defender's reported
// result. A miss hands the turn to the defender; a hit leaves it with the
// striker.
func (c *Controller) ResolveStrike(ctx context.Context, sessionID model.SessionID, reporterID model.PlayerID, pos model.Position, result model.StrikeResult) (*Resolution, error) {
	if !result.IsValid() {
		return nil, model.ErrInvalidResult
	}

	res := &Resolution{}
	session, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if !s.HasPlayer(reporterID) {
			return model.ErrNotSessionMember
		}
		if s.Pending == nil {
			return model.ErrNoPendingStrike
		}
		if s.Pending.Defender != reporterID || s.Pending.Position != pos {
			return model.ErrStrikeMismatch
		}

		owner, changed, err := c.arbiter.ApplyResult(s, s.Pending.Striker, result)
		if err != nil {
			return err
		}

		res.Striker = s.Pending.Striker
		res.Defender = s.Pending.Defender
		res.TurnOwner = owner
		res.TurnChanged = changed
		s.Pending = nil
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Session = session

	c.logger.Debug("strike resolved",
		slog.String("session_id", string(sessionID)),
		slog.String("striker", string(res.Striker)),
		slog.String("result", string(result)),
		slog.String("turn_owner", string(res.TurnOwner)),
	)

	return res, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateSession(ctx context.Context) (*model.Session, error)
	GetSession(ctx context.Context, sessionID model.SessionID) (*model.Session, error)
	JoinSession(ctx context.Context, sessionID model.SessionID) (*model.Session, model.PlayerID, error)
	BeginStrike(ctx context.Context, sessionID model.SessionID, playerID model.PlayerID, pos model.Position) (model.PlayerID, error)
	ResolveStrike(ctx context.Context, sessionID model.SessionID, reporterID model.PlayerID, pos model.Position, result model.StrikeResult) (*Resolution, error)
}

var _ ControllerInterface = (*Controller)(nil)
