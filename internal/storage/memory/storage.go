package memory

import (
	"context"
	"sync"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// The map lock only guards the set of sessions; each session carries its own
// lock so updates to different sessions don't contend.
type Storage struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*entry
}

type entry struct {
	mu      sync.Mutex
	session *model.Session
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionID]*entry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return model.ErrSessionExists
	}
	s.sessions[session.ID] = &entry{session: session.Clone()}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

func (s *Storage) UpdateSession(ctx context.Context, id model.SessionID, fn storage.UpdateFunc) (*model.Session, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Work on a copy so a failed update leaves no partial changes behind
	working := e.session.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.session = working
	return working.Clone(), nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Count returns the number of stored sessions
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Storage) lookup(id model.SessionID) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}
