package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/api"
	"github.com/mcoot/battleship-go/internal/factory"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/protocol"
	"github.com/mcoot/battleship-go/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		SessionController: s.app.SessionController,
		WebSocket:         s.app.Hub,
		Connections:       s.app.Hub,
	}))
}

func (s *CLISuite) TearDownTest() {
	_ = s.app.Close()
	s.server.Close()
}

// run executes the CLI with args and returns stdout and stderr
func (s *CLISuite) run(stdin string, args ...string) (string, string, error) {
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", s.server.URL, "--timeout", "5s"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (s *CLISuite) dial() (*PlaySession, *testutil.LogBuffer) {
	buf := &testutil.LogBuffer{}
	out := NewOutput("text", buf, buf)
	wsURL, err := NewClient(s.server.URL, time.Second).WebSocketURL("/ws")
	s.Require().NoError(err)

	p, err := Dial(context.Background(), wsURL, out, 5*time.Second)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = p.Close() })
	return p, buf
}

func (s *CLISuite) exec(p *PlaySession, line string) {
	quit, err := p.Exec(context.Background(), line)
	s.Require().NoError(err, line)
	s.False(quit)
}

func (s *CLISuite) TestHealth() {
	stdout, _, err := s.run("", "health")
	s.Require().NoError(err)
	s.Contains(stdout, "Status: ok")
	s.Contains(stdout, "Connections: 0")
}

func (s *CLISuite) TestHealthJSON() {
	stdout, _, err := s.run("", "health", "-o", "json")
	s.Require().NoError(err)
	s.JSONEq(`{"status":"ok","connections":0}`, stdout)
}

func (s *CLISuite) TestSessionGet() {
	s.app.MockRandom.QueueToken("S1", "P1")
	ctx := context.Background()
	_, err := s.app.SessionController.CreateSession(ctx)
	s.Require().NoError(err)
	_, _, err = s.app.SessionController.JoinSession(ctx, "S1")
	s.Require().NoError(err)

	stdout, _, err := s.run("", "session", "get", "S1")
	s.Require().NoError(err)
	s.Contains(stdout, "Session: S1")
	s.Contains(stdout, "State: waiting")
	s.Contains(stdout, "Players: P1")
	s.Contains(stdout, "Turn: P1")
}

func (s *CLISuite) TestSessionGetNotFound() {
	_, _, err := s.run("", "session", "get", "missing")
	s.Require().Error(err)
	s.Contains(err.Error(), "SESSION_NOT_FOUND")
}

func (s *CLISuite) TestPlayScript() {
	s.app.MockRandom.QueueToken("S1", "P1")

	stdout, stderr, err := s.run("create\njoin\nwait chance\nstatus\nquit\n", "play")
	s.Require().NoError(err)
	s.Empty(stderr)
	s.Contains(stdout, "Welcome to the battleship game!")
	s.Contains(stdout, "Session created: S1")
	s.Contains(stdout, "Joined session S1 as P1")
	s.Contains(stdout, "Turn: you")
}

func (s *CLISuite) TestPlayReportsBadCommands() {
	_, stderr, err := s.run("strike 1 1\nfire\njoin\nquit\n", "play")
	s.Require().NoError(err)
	s.Contains(stderr, "join a session first")
	s.Contains(stderr, `unknown command "fire"`)
	s.Contains(stderr, "usage: join <session-id>")
}

func (s *CLISuite) TestTwoPlayers() {
	s.app.MockRandom.QueueToken("S1", "P1", "P2")
	a, aOut := s.dial()
	b, bOut := s.dial()

	s.exec(a, "create")
	s.exec(a, "join")
	s.exec(b, "join S1")
	s.exec(a, "wait playerJoined")

	s.Equal(PlayState{SessionID: "S1", PlayerID: "P1", MyTurn: true}, a.State())
	s.Equal(PlayState{SessionID: "S1", PlayerID: "P2", MyTurn: false}, b.State())

	s.exec(a, "strike 2 3")
	s.exec(b, "wait strike")
	s.exec(b, "miss")
	s.exec(a, "wait strikeResult")
	s.exec(b, "wait chance")

	s.Eventually(func() bool { return !a.State().MyTurn }, 2*time.Second, 10*time.Millisecond)
	s.True(b.State().MyTurn)

	s.Contains(bOut.String(), "Incoming strike at (2,3) from P1")
	s.Eventually(func() bool { return strings.Contains(aOut.String(), "Strike at (2,3): miss") }, 2*time.Second, 10*time.Millisecond)
}

func (s *CLISuite) TestJoinFullSession() {
	s.app.MockRandom.QueueToken("S1")
	a, _ := s.dial()
	b, _ := s.dial()
	c, _ := s.dial()

	s.exec(a, "create")
	s.exec(a, "join")
	s.exec(b, "join S1")

	_, err := c.Exec(context.Background(), "join S1")
	s.Require().Error(err)
	s.Contains(err.Error(), "full")
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		server string
		path   string
		want   string
		err    bool
	}{
		{"http://localhost:8080", "/ws", "ws://localhost:8080/ws", false},
		{"https://example.com/", "/ws", "wss://example.com/ws", false},
		{"https://example.com/game", "/play", "wss://example.com/game/play", false},
		{"ws://localhost:1", "/ws", "ws://localhost:1/ws", false},
		{"ftp://localhost", "/ws", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := NewClient(tt.server, time.Second).WebSocketURL(tt.path)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition([]string{"3", "7"})
	require.NoError(t, err)
	assert.Equal(t, model.Position{Row: 3, Col: 7}, pos)

	for _, args := range [][]string{nil, {"1"}, {"a", "1"}, {"1", "b"}, {"-1", "0"}} {
		_, err := parsePosition(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestDescribeEvent(t *testing.T) {
	encode := func(msg protocol.Outbound) protocol.Envelope {
		payload, err := protocol.Encode(msg)
		require.NoError(t, err)
		env, err := protocol.DecodeEnvelope(payload)
		require.NoError(t, err)
		return env
	}

	assert.Equal(t, "Your turn", describeEvent(encode(protocol.Chance{PlayerID: "P1", Chance: true})))
	assert.Equal(t, "Opponent's turn", describeEvent(encode(protocol.Chance{PlayerID: "P1"})))
	assert.Equal(t, "Strike at (1,2): hit", describeEvent(encode(protocol.StrikeResultRelay{Row: 1, Col: 2, Result: model.StrikeResultHit})))
	assert.Equal(t, "Could not deliver strike to P2", describeEvent(encode(protocol.DeliveryFailed{PlayerID: "P2", Type: protocol.TypeStrike})))
	assert.Equal(t, "Session is full", describeEvent(encode(protocol.SessionFull{})))
	assert.Equal(t, `mystery {"a":1}`, describeEvent(protocol.Envelope{Type: "mystery", Data: []byte(`{"a":1}`)}))
}
