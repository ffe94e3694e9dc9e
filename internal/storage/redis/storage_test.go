package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) createSession(id model.SessionID) {
	session := model.NewSession(id, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.storage.CreateSession(s.ctx, session))
}

func (s *StorageSuite) TestCreateAndGetSession() {
	s.createSession("S1")

	retrieved, err := s.storage.GetSession(s.ctx, "S1")
	s.Require().NoError(err)
	s.Equal(model.SessionID("S1"), retrieved.ID)
	s.NotNil(retrieved.Players)
	s.Empty(retrieved.Players)
	s.Nil(retrieved.Pending)
}

func (s *StorageSuite) TestCreateSessionRejectsDuplicateID() {
	s.createSession("S1")

	err := s.storage.CreateSession(s.ctx, model.NewSession("S1", time.Now()))
	s.ErrorIs(err, model.ErrSessionExists)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionKeyHasTTL() {
	s.createSession("S1")

	ttl := s.mini.TTL(sessionKey("S1"))
	s.Equal(time.Hour, ttl)
}

func (s *StorageSuite) TestSessionExpires() {
	s.createSession("S1")

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, "S1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestUpdateSessionPersistsPendingStrike() {
	s.createSession("S1")

	_, err := s.storage.UpdateSession(s.ctx, "S1", func(session *model.Session) error {
		session.Players = append(session.Players, "P1", "P2")
		session.TurnOwner = "P1"
		session.Pending = &model.PendingStrike{
			Striker:  "P1",
			Defender: "P2",
			Position: model.Position{Row: 2, Col: 3},
		}
		return nil
	})
	s.Require().NoError(err)

	retrieved, err := s.storage.GetSession(s.ctx, "S1")
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"P1", "P2"}, retrieved.Players)
	s.Equal(model.PlayerID("P1"), retrieved.TurnOwner)
	s.Require().NotNil(retrieved.Pending)
	s.Equal(model.Position{Row: 2, Col: 3}, retrieved.Pending.Position)
}

func (s *StorageSuite) TestUpdateSessionErrorDiscardsChanges() {
	s.createSession("S1")
	boom := errors.New("boom")

	_, err := s.storage.UpdateSession(s.ctx, "S1", func(session *model.Session) error {
		session.Players = append(session.Players, "P1")
		return boom
	})
	s.ErrorIs(err, boom)

	retrieved, _ := s.storage.GetSession(s.ctx, "S1")
	s.Empty(retrieved.Players)
}

func (s *StorageSuite) TestUpdateSessionNotFound() {
	_, err := s.storage.UpdateSession(s.ctx, "missing", func(*model.Session) error { return nil })
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestConcurrentJoinsNeverOverfill() {
	s.createSession("S1")

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.storage.UpdateSession(s.ctx, "S1", func(session *model.Session) error {
				if session.IsFull() {
					return model.ErrSessionFull
				}
				session.Players = append(session.Players, "P")
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		// Losers either see a full session or exhausted their retries
		s.True(errors.Is(err, model.ErrSessionFull) || errors.Is(err, model.ErrConcurrentUpdate), "unexpected error: %v", err)
	}

	retrieved, _ := s.storage.GetSession(s.ctx, "S1")
	s.LessOrEqual(len(retrieved.Players), model.MaxPlayers)
	s.Equal(len(retrieved.Players), accepted)
}
