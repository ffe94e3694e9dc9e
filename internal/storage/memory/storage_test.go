package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) createSession(id model.SessionID) *model.Session {
	session := model.NewSession(id, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.storage.CreateSession(s.ctx, session))
	return session
}

func (s *StorageSuite) TestCreateAndGetSession() {
	s.createSession("S1")

	retrieved, err := s.storage.GetSession(s.ctx, "S1")
	s.Require().NoError(err)
	s.Equal(model.SessionID("S1"), retrieved.ID)
	s.Empty(retrieved.Players)
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

func (s *StorageSuite) TestReturnedSessionIsACopy() {
	s.createSession("S1")

	retrieved, _ := s.storage.GetSession(s.ctx, "S1")
	retrieved.Players = append(retrieved.Players, "intruder")

	again, _ := s.storage.GetSession(s.ctx, "S1")
	s.Empty(again.Players)
}

func (s *StorageSuite) TestUpdateSessionPersists() {
	s.createSession("S1")

	updated, err := s.storage.UpdateSession(s.ctx, "S1", func(session *model.Session) error {
		session.Players = append(session.Players, "P1")
		session.TurnOwner = "P1"
		return nil
	})
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"P1"}, updated.Players)

	retrieved, _ := s.storage.GetSession(s.ctx, "S1")
	s.Equal(model.PlayerID("P1"), retrieved.TurnOwner)
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

func (s *StorageSuite) TestConcurrentUpdatesAreSerialized() {
	s.createSession("S1")

	const writers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.storage.UpdateSession(s.ctx, "S1", func(session *model.Session) error {
				if session.IsFull() {
					return model.ErrSessionFull
				}
				session.Players = append(session.Players, model.PlayerID("P"))
				return nil
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(model.MaxPlayers, accepted)
	retrieved, _ := s.storage.GetSession(s.ctx, "S1")
	s.Len(retrieved.Players, model.MaxPlayers)
}

func (s *StorageSuite) TestCount() {
	s.Equal(0, s.storage.Count())
	s.createSession("S1")
	s.createSession("S2")
	s.Equal(2, s.storage.Count())
}
