package factory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/config"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/protocol"
	redisstorage "github.com/mcoot/battleship-go/internal/storage/redis"
)

// recordingConn captures everything the router sends to it
type recordingConn struct {
	id  string
	mu  sync.Mutex
	out []protocol.Envelope
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(payload []byte) error {
	env, err := protocol.DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, env)
	return nil
}

func (c *recordingConn) take() []protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.out
	c.out = nil
	return out
}

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) send(conn *recordingConn, msg protocol.Inbound) []protocol.Envelope {
	payload, err := protocol.EncodeInbound(msg)
	s.Require().NoError(err)
	s.app.Router.HandleMessage(s.ctx, conn, payload)
	return conn.take()
}

func types(envs []protocol.Envelope) []protocol.MessageType {
	out := make([]protocol.MessageType, len(envs))
	for i, e := range envs {
		out[i] = e.Type
	}
	return out
}

// Test: a full exchange of strikes through the wired router
func (s *IntegrationSuite) TestCompleteExchange() {
	s.app.MockRandom.QueueToken("S1", "P1", "P2")
	a := &recordingConn{id: "a"}
	b := &recordingConn{id: "b"}

	// Step 1: A opens a session and joins it
	s.app.Router.HandleOpen(s.ctx, a)
	s.Equal([]protocol.MessageType{protocol.TypeWelcome}, types(a.take()))
	s.Equal([]protocol.MessageType{protocol.TypeSessionCreated}, types(s.send(a, protocol.CreateSession{})))
	s.Equal([]protocol.MessageType{protocol.TypeSessionJoined, protocol.TypeChance}, types(s.send(a, protocol.JoinSession{SessionID: "S1"})))

	// Step 2: B joins; A hears about it
	s.Equal([]protocol.MessageType{protocol.TypeSessionJoined, protocol.TypeChance}, types(s.send(b, protocol.JoinSession{SessionID: "S1"})))
	s.Equal([]protocol.MessageType{protocol.TypePlayerJoined}, types(a.take()))

	// Step 3: P1 hits twice and keeps the turn
	for col := 0; col < 2; col++ {
		s.Empty(s.send(a, protocol.Strike{SessionID: "S1", PlayerID: "P1", Position: model.Position{Row: 0, Col: col}}))
		s.Equal([]protocol.MessageType{protocol.TypeStrike}, types(b.take()))
		s.Empty(s.send(b, protocol.StrikeResult{SessionID: "S1", PlayerID: "P2", Position: model.Position{Row: 0, Col: col}, Result: model.StrikeResultHit}))
		s.Equal([]protocol.MessageType{protocol.TypeStrikeResult}, types(a.take()))
	}

	// Step 4: P1 misses and the turn passes
	s.send(a, protocol.Strike{SessionID: "S1", PlayerID: "P1", Position: model.Position{Row: 5, Col: 5}})
	b.take()
	got := s.send(b, protocol.StrikeResult{SessionID: "S1", PlayerID: "P2", Position: model.Position{Row: 5, Col: 5}, Result: model.StrikeResultMiss})
	s.Require().Len(got, 1)
	var chance protocol.Chance
	s.Require().NoError(json.Unmarshal(got[0].Data, &chance))
	s.Equal(protocol.Chance{PlayerID: "P2", Chance: true}, chance)

	// The striker hears the result and loses the turn
	toStriker := a.take()
	s.Require().Equal([]protocol.MessageType{protocol.TypeStrikeResult, protocol.TypeChance}, types(toStriker))
	var strikerChance protocol.Chance
	s.Require().NoError(json.Unmarshal(toStriker[1].Data, &strikerChance))
	s.Equal(protocol.Chance{PlayerID: "P1", Chance: false}, strikerChance)

	session, err := s.app.SessionController.GetSession(s.ctx, "S1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("P2"), session.TurnOwner)
	s.Nil(session.Pending)

	// Step 5: B leaves
	s.app.Router.HandleClose(s.ctx, b)
	s.Equal([]protocol.MessageType{protocol.TypePlayerDisconnected}, types(a.take()))
	s.Equal(1, s.app.Registry.Count())
}

// Test: relaxed turns let the player without the turn strike
func (s *IntegrationSuite) TestRelaxedTurns() {
	s.app = NewTestAppWithConfig(Config{RelaxTurns: true})
	s.app.MockRandom.QueueToken("S1", "P1", "P2")
	a := &recordingConn{id: "a"}
	b := &recordingConn{id: "b"}
	s.send(a, protocol.CreateSession{})
	s.send(a, protocol.JoinSession{SessionID: "S1"})
	s.send(b, protocol.JoinSession{SessionID: "S1"})
	a.take()

	s.Empty(s.send(b, protocol.Strike{SessionID: "S1", PlayerID: "P2", Position: model.Position{}}))
	s.Equal([]protocol.MessageType{protocol.TypeStrike}, types(a.take()))
}

// Test: session timestamps come from the injected clock
func (s *IntegrationSuite) TestClockDrivesTimestamps() {
	s.app.MockRandom.QueueToken("S1", "P1")
	created, err := s.app.SessionController.CreateSession(s.ctx)
	s.Require().NoError(err)

	s.app.MockClock.Advance(time.Minute)
	joined, _, err := s.app.SessionController.JoinSession(s.ctx, created.ID)
	s.Require().NoError(err)

	s.Equal(created.CreatedAt, joined.CreatedAt)
	s.Equal(created.CreatedAt.Add(time.Minute), joined.UpdatedAt)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.True(t, app.Arbiter.EnforcesTurns())
	session, err := app.SessionController.CreateSession(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "etcd"})
	assert.Error(t, err)

	_, err = New(Config{StorageType: StorageTypeRedis})
	assert.Error(t, err)
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	ctx := context.Background()
	created, err := app.SessionController.CreateSession(ctx)
	require.NoError(t, err)
	_, playerID, err := app.SessionController.JoinSession(ctx, created.ID)
	require.NoError(t, err)

	got, err := app.SessionController.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.PlayerID{playerID}, got.Players)
	assert.Equal(t, playerID, got.TurnOwner)
}

func TestFromEnv(t *testing.T) {
	cfg := config.Config{
		StorageType:      config.StorageTypeRedis,
		RedisURL:         "redis://cache:6379",
		SessionTTL:       time.Hour,
		SendBuffer:       8,
		EnforceTurns:     false,
		NotifyDisconnect: true,
	}

	fc := FromEnv(cfg, nil)

	assert.Equal(t, StorageTypeRedis, fc.StorageType)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379", fc.RedisConfig.URL)
	assert.Equal(t, time.Hour, fc.RedisConfig.SessionTTL)
	assert.Equal(t, redisstorage.DefaultConfig().MaxUpdateRetries, fc.RedisConfig.MaxUpdateRetries)
	assert.True(t, fc.RelaxTurns)
	assert.True(t, fc.NotifyDisconnect)
	assert.Equal(t, 8, fc.SendBuffer)

	fc = FromEnv(config.Config{StorageType: config.StorageTypeMemory, EnforceTurns: true}, nil)
	assert.Nil(t, fc.RedisConfig)
	assert.False(t, fc.RelaxTurns)
}
