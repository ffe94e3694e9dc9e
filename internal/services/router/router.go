package router

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/protocol"
	"github.com/mcoot/battleship-go/internal/services/registry"
	"github.com/mcoot/battleship-go/internal/services/session"
)

// Config holds router behavior switches
type Config struct {
	// NotifyDisconnect sends playerDisconnected to the peer when a
	// connection closes. Without it the peer just stops hearing back.
	NotifyDisconnect bool
}

// Router dispatches inbound messages to the session controller and routes
// the resulting events to the right connections
type Router struct {
	sessions session.ControllerInterface
	registry *registry.Service
	cfg      Config
	logger   *slog.Logger
}

// New creates a new Router
func New(sessions session.ControllerInterface, registry *registry.Service, cfg Config, logger *slog.Logger) *Router {
	return &Router{
		sessions: sessions,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "router")),
	}
}

// envelope addresses one outbound message. An empty player means the
// connection the inbound message arrived on.
type envelope struct {
	to  model.PlayerID
	msg protocol.Outbound
}

func toSender(msg protocol.Outbound) envelope {
	return envelope{msg: msg}
}

func toPlayer(playerID model.PlayerID, msg protocol.Outbound) envelope {
	return envelope{to: playerID, msg: msg}
}

// HandleOpen greets a new connection. It has no session until it joins one.
func (r *Router) HandleOpen(ctx context.Context, conn registry.Conn) {
	r.logger.Info("connection opened", slog.String("conn_id", conn.ID()))
	r.deliver(conn, []envelope{toSender(protocol.Welcome{Message: MsgWelcome})})
}

// HandleMessage processes one inbound payload. Failures are reported to the
// sender and never escape to the transport.
func (r *Router) HandleMessage(ctx context.Context, conn registry.Conn, payload []byte) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("panic recovered",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
				slog.String("conn_id", conn.ID()),
			)
			r.deliver(conn, []envelope{toSender(protocol.Error{Message: MsgInternalError})})
		}
	}()

	msg, err := protocol.Decode(payload)
	if err != nil {
		r.logger.Warn("malformed message",
			slog.String("conn_id", conn.ID()),
			slog.String("error", err.Error()))
		r.deliver(conn, []envelope{toSender(protocol.Error{Message: err.Error()})})
		return
	}

	var out []envelope
	switch m := msg.(type) {
	case protocol.CreateSession:
		out = r.handleCreateSession(ctx)
	case protocol.JoinSession:
		out = r.handleJoinSession(ctx, conn, m)
	case protocol.Strike:
		out = r.handleStrike(ctx, conn, m)
	case protocol.StrikeResult:
		out = r.handleStrikeResult(ctx, conn, m)
	}

	r.deliver(conn, out)
}

// HandleClose drops the connection's binding. The player stays in their
// session; there is no way to resume it.
func (r *Router) HandleClose(ctx context.Context, conn registry.Conn) {
	binding, ok := r.registry.Unbind(conn.ID())
	if !ok {
		r.logger.Info("connection closed", slog.String("conn_id", conn.ID()))
		return
	}

	r.logger.Info("connection closed",
		slog.String("conn_id", conn.ID()),
		slog.String("player_id", string(binding.PlayerID)),
		slog.String("session_id", string(binding.SessionID)))

	if !r.cfg.NotifyDisconnect {
		return
	}

	s, err := r.sessions.GetSession(ctx, binding.SessionID)
	if err != nil {
		r.logger.Warn("could not load session for disconnect notice",
			slog.String("session_id", string(binding.SessionID)),
			slog.String("error", err.Error()))
		return
	}

	opponent := s.Opponent(binding.PlayerID)
	if opponent == "" {
		return
	}
	// The closing connection can't receive a deliveryFailed report
	_ = r.send(conn, toPlayer(opponent, protocol.PlayerDisconnected{PlayerID: binding.PlayerID}))
}

func (r *Router) handleCreateSession(ctx context.Context) []envelope {
	s, err := r.sessions.CreateSession(ctx)
	if err != nil {
		r.logger.Error("failed to create session", slog.String("error", err.Error()))
		return []envelope{toSender(protocol.Error{Message: MsgInternalError})}
	}
	return []envelope{toSender(protocol.SessionCreated{SessionID: s.ID})}
}

func (r *Router) handleJoinSession(ctx context.Context, conn registry.Conn, m protocol.JoinSession) []envelope {
	if _, joined := r.registry.BindingFor(conn.ID()); joined {
		return []envelope{toSender(protocol.Error{Message: MsgAlreadyJoined})}
	}

	s, playerID, err := r.sessions.JoinSession(ctx, m.SessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionFull) || errors.Is(err, model.ErrSessionNotFound) {
			return []envelope{toSender(protocol.SessionFull{})}
		}
		r.logger.Error("failed to join session",
			slog.String("session_id", string(m.SessionID)),
			slog.String("error", err.Error()))
		return []envelope{toSender(protocol.Error{Message: MsgInternalError})}
	}

	if err := r.registry.Bind(playerID, s.ID, conn); err != nil {
		// Reads on a connection are sequential, so the earlier check holds
		r.logger.Error("failed to bind connection",
			slog.String("conn_id", conn.ID()),
			slog.String("error", err.Error()))
		return []envelope{toSender(protocol.Error{Message: MsgAlreadyJoined})}
	}

	out := []envelope{
		toSender(protocol.SessionJoined{SessionID: s.ID, PlayerID: playerID}),
		toSender(protocol.Chance{PlayerID: playerID, Chance: s.TurnOwner == playerID}),
	}
	if opponent := s.Opponent(playerID); opponent != "" {
		out = append(out, toPlayer(opponent, protocol.PlayerJoined{PlayerID: playerID, Chance: false}))
	}
	return out
}

func (r *Router) handleStrike(ctx context.Context, conn registry.Conn, m protocol.Strike) []envelope {
	if !r.servesPlayer(conn, m.SessionID, m.PlayerID) {
		return []envelope{toSender(protocol.InvalidStrike{Message: MsgNotYourTurn})}
	}

	defender, err := r.sessions.BeginStrike(ctx, m.SessionID, m.PlayerID, m.Position)
	if err != nil {
		if rejection, ok := strikeRejection(err); ok {
			return []envelope{toSender(rejection)}
		}
		r.logger.Error("failed to record strike",
			slog.String("session_id", string(m.SessionID)),
			slog.String("error", err.Error()))
		return []envelope{toSender(protocol.Error{Message: MsgInternalError})}
	}

	return []envelope{
		toPlayer(defender, protocol.StrikeRelay{Row: m.Position.Row, Col: m.Position.Col, PlayerID: m.PlayerID}),
	}
}

func (r *Router) handleStrikeResult(ctx context.Context, conn registry.Conn, m protocol.StrikeResult) []envelope {
	if !r.servesPlayer(conn, m.SessionID, m.PlayerID) {
		return []envelope{toSender(protocol.Error{Message: MsgWrongPlayer})}
	}

	res, err := r.sessions.ResolveStrike(ctx, m.SessionID, m.PlayerID, m.Position, m.Result)
	if err != nil {
		if rejection, ok := resultRejection(err); ok {
			return []envelope{toSender(rejection)}
		}
		r.logger.Error("failed to resolve strike",
			slog.String("session_id", string(m.SessionID)),
			slog.String("error", err.Error()))
		return []envelope{toSender(protocol.Error{Message: MsgInternalError})}
	}

	out := []envelope{
		toPlayer(res.Striker, protocol.StrikeResultRelay{
			Row:      m.Position.Row,
			Col:      m.Position.Col,
			Result:   m.Result,
			PlayerID: m.PlayerID,
		}),
	}
	if res.TurnChanged {
		out = append(out,
			toPlayer(res.Striker, protocol.Chance{PlayerID: res.Striker, Chance: false}),
			toSender(protocol.Chance{PlayerID: res.Defender, Chance: true}),
		)
	}
	return out
}

// servesPlayer checks that the connection is bound to the claimed player
func (r *Router) servesPlayer(conn registry.Conn, sessionID model.SessionID, playerID model.PlayerID) bool {
	binding, ok := r.registry.BindingFor(conn.ID())
	return ok && binding.PlayerID == playerID && binding.SessionID == sessionID
}

// deliver sends each message to its target. A peer that can't be reached is
// logged and reported back to the sender; it never aborts the rest.
func (r *Router) deliver(sender registry.Conn, out []envelope) {
	var failures []envelope
	for _, e := range out {
		if err := r.send(sender, e); err != nil && e.to != "" {
			failures = append(failures, toSender(protocol.DeliveryFailed{PlayerID: e.to, Type: e.msg.Kind()}))
		}
	}
	// A failing report is only logged
	for _, e := range failures {
		_ = r.send(sender, e)
	}
}

func (r *Router) send(sender registry.Conn, e envelope) error {
	payload, err := protocol.Encode(e.msg)
	if err != nil {
		r.logger.Error("failed to encode message",
			slog.String("type", string(e.msg.Kind())),
			slog.String("error", err.Error()))
		return err
	}

	if e.to == "" {
		err = sender.Send(payload)
	} else {
		err = r.registry.Send(e.to, payload)
	}
	if err != nil {
		r.logger.Warn("delivery failed",
			slog.String("conn_id", sender.ID()),
			slog.String("player_id", string(e.to)),
			slog.String("type", string(e.msg.Kind())),
			slog.String("error", err.Error()))
	}
	return err
}
