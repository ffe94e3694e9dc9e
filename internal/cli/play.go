package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/protocol"
)

// ErrConnectionClosed is returned when the server goes away mid-command
var ErrConnectionClosed = errors.New("connection closed")

const playHelp = `Commands:
  create              create a new session
  join [session-id]   join a session (defaults to the last one created)
  strike <row> <col>  fire at the opponent
  hit [row col]       report that the last incoming strike hit
  miss [row col]      report that the last incoming strike missed
  wait <type>         block until a message of that type arrives
  status              show the local session state
  help                show this help
  quit                disconnect`

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively over a WebSocket connection",
		Long: `Open a WebSocket connection to the server and play from the terminal.

Commands are read one per line from standard input, so a game can also be
scripted by piping a file in.

` + playHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := client.WebSocketURL(cfg.WSPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			p, err := Dial(ctx, wsURL, out, cfg.Timeout)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()
			p.Verbose = cfg.Verbose

			return p.Run(ctx, cmd.InOrStdin())
		},
	}
}

// PlaySession is one interactive WebSocket connection to the server
type PlaySession struct {
	// Verbose echoes each outbound message type
	Verbose bool

	conn    *websocket.Conn
	out     *Output
	timeout time.Duration

	events chan protocol.Envelope
	done   chan struct{}

	writeMu sync.Mutex

	mu          sync.Mutex
	lastCreated model.SessionID
	sessionID   model.SessionID
	playerID    model.PlayerID
	myTurn      bool
	lastStrike  *model.Position
}

// Dial connects to the server and waits for its greeting
func Dial(ctx context.Context, wsURL string, out *Output, timeout time.Duration) (*PlaySession, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", wsURL, err)
	}

	p := &PlaySession{
		conn:    conn,
		out:     out,
		timeout: timeout,
		events:  make(chan protocol.Envelope, 256),
		done:    make(chan struct{}),
	}
	go p.readLoop()

	if _, err := p.await(ctx, protocol.TypeWelcome); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Close sends a close frame, drops the connection and waits for the read
// loop to finish printing
func (p *PlaySession) Close() error {
	p.writeMu.Lock()
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	p.writeMu.Unlock()
	err := p.conn.Close()
	<-p.done
	return err
}

// State returns the local view of the session
func (p *PlaySession) State() PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayState{
		SessionID: string(p.sessionID),
		PlayerID:  string(p.playerID),
		MyTurn:    p.myTurn,
	}
}

// Run executes commands from in until EOF, quit, or the connection drops.
// A failed command is reported and the loop carries on.
func (p *PlaySession) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.done:
			return ErrConnectionClosed
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := p.Exec(ctx, line)
			if errors.Is(err, ErrConnectionClosed) {
				return err
			}
			if err != nil {
				p.out.PrintError(err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs a single command line
func (p *PlaySession) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "create":
		return false, p.create(ctx)
	case "join":
		return false, p.join(ctx, args)
	case "strike":
		return false, p.strike(args)
	case "hit":
		return false, p.report(args, model.StrikeResultHit)
	case "miss":
		return false, p.report(args, model.StrikeResultMiss)
	case "wait":
		if len(args) != 1 {
			return false, errors.New("usage: wait <type>")
		}
		_, err := p.await(ctx, protocol.MessageType(args[0]))
		return false, err
	case "status":
		p.out.Print(p.State())
		return false, nil
	case "help":
		p.out.PrintMessage(playHelp)
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (p *PlaySession) create(ctx context.Context) error {
	p.drain()
	if err := p.send(protocol.CreateSession{}); err != nil {
		return err
	}
	env, err := p.await(ctx, protocol.TypeSessionCreated, protocol.TypeError)
	if err != nil {
		return err
	}
	return replyError(env)
}

func (p *PlaySession) join(ctx context.Context, args []string) error {
	p.mu.Lock()
	sessionID := p.lastCreated
	p.mu.Unlock()

	if len(args) > 0 {
		sessionID = model.SessionID(args[0])
	}
	if sessionID == "" {
		return errors.New("usage: join <session-id>")
	}

	p.drain()
	if err := p.send(protocol.JoinSession{SessionID: sessionID}); err != nil {
		return err
	}
	env, err := p.await(ctx, protocol.TypeSessionJoined, protocol.TypeSessionFull, protocol.TypeError)
	if err != nil {
		return err
	}
	if env.Type == protocol.TypeSessionFull {
		return fmt.Errorf("session %s is full or does not exist", sessionID)
	}
	return replyError(env)
}

func (p *PlaySession) strike(args []string) error {
	pos, err := parsePosition(args)
	if err != nil {
		return fmt.Errorf("usage: strike <row> <col>: %w", err)
	}

	sessionID, playerID, err := p.identity()
	if err != nil {
		return err
	}
	return p.send(protocol.Strike{SessionID: sessionID, PlayerID: playerID, Position: pos})
}

func (p *PlaySession) report(args []string, result model.StrikeResult) error {
	var pos model.Position
	if len(args) == 0 {
		p.mu.Lock()
		last := p.lastStrike
		p.mu.Unlock()
		if last == nil {
			return fmt.Errorf("no incoming strike to answer; use %s <row> <col>", result)
		}
		pos = *last
	} else {
		var err error
		if pos, err = parsePosition(args); err != nil {
			return fmt.Errorf("usage: %s [row col]: %w", result, err)
		}
	}

	sessionID, playerID, err := p.identity()
	if err != nil {
		return err
	}
	return p.send(protocol.StrikeResult{SessionID: sessionID, PlayerID: playerID, Position: pos, Result: result})
}

func (p *PlaySession) identity() (model.SessionID, model.PlayerID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionID == "" {
		return "", "", errors.New("join a session first")
	}
	return p.sessionID, p.playerID, nil
}

func (p *PlaySession) send(msg protocol.Inbound) error {
	payload, err := protocol.EncodeInbound(msg)
	if err != nil {
		return err
	}

	if p.Verbose {
		p.out.PrintMessage(fmt.Sprintf("-> %s", msg.Kind()))
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return nil
}

// await blocks until a message of one of the given types arrives
func (p *PlaySession) await(ctx context.Context, types ...protocol.MessageType) (protocol.Envelope, error) {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	for {
		select {
		case env := <-p.events:
			for _, t := range types {
				if env.Type == t {
					return env, nil
				}
			}
		case <-p.done:
			return protocol.Envelope{}, ErrConnectionClosed
		case <-timer.C:
			return protocol.Envelope{}, fmt.Errorf("timed out waiting for %v", types)
		case <-ctx.Done():
			return protocol.Envelope{}, ctx.Err()
		}
	}
}

// drain discards messages nobody waited for, so a reply can't be confused
// with an older message of the same type
func (p *PlaySession) drain() {
	for {
		select {
		case <-p.events:
		default:
			return
		}
	}
}

func (p *PlaySession) readLoop() {
	defer close(p.done)

	for {
		_, payload, err := p.conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := protocol.DecodeEnvelope(payload)
		if err != nil {
			p.out.PrintError(err)
			continue
		}

		p.track(env)
		p.out.PrintEvent(env)

		select {
		case p.events <- env:
		default:
		}
	}
}

// track keeps the local state in step with the server
func (p *PlaySession) track(env protocol.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch env.Type {
	case protocol.TypeSessionCreated:
		var m protocol.SessionCreated
		if decodeInto(env, &m) {
			p.lastCreated = m.SessionID
		}
	case protocol.TypeSessionJoined:
		var m protocol.SessionJoined
		if decodeInto(env, &m) {
			p.sessionID = m.SessionID
			p.playerID = m.PlayerID
		}
	case protocol.TypeChance:
		var m protocol.Chance
		if decodeInto(env, &m) && m.PlayerID == p.playerID {
			p.myTurn = m.Chance
		}
	case protocol.TypeStrike:
		var m protocol.StrikeRelay
		if decodeInto(env, &m) {
			p.lastStrike = &model.Position{Row: m.Row, Col: m.Col}
		}
	}
}

func replyError(env protocol.Envelope) error {
	if env.Type != protocol.TypeError {
		return nil
	}
	var m protocol.Error
	_ = decodeInto(env, &m)
	return fmt.Errorf("server rejected command: %s", m.Message)
}

func parsePosition(args []string) (model.Position, error) {
	if len(args) != 2 {
		return model.Position{}, errors.New("expected row and column")
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid row %q", args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid column %q", args[1])
	}
	pos := model.Position{Row: row, Col: col}
	if !pos.IsValid() {
		return model.Position{}, errors.New("row and column must be non-negative")
	}
	return pos, nil
}
