package storage

import (
	"context"

	"github.com/mcoot/battleship-go/internal/model"
)

// UpdateFunc mutates a session in place. Returning an error aborts the
// update and leaves the stored session untouched.
type UpdateFunc func(session *model.Session) error

// Storage defines the interface for session persistence.
//
// Implementations hand out copies: a session returned from any method can be
// modified freely without affecting stored state. All mutation of an existing
// session goes through UpdateSession, which implementations serialize per
// session so concurrent updates never interleave.
type Storage interface {
	// CreateSession stores a new session, failing with model.ErrSessionExists
	// if the id is taken
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)

	// UpdateSession applies fn atomically and returns the stored result
	UpdateSession(ctx context.Context, id model.SessionID, fn UpdateFunc) (*model.Session, error)

	Close() error
}
