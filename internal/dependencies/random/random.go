package random

import (
	"github.com/google/uuid"
)

// Random generates the opaque identifiers handed out to clients
type Random interface {
	// Token returns a new globally unique opaque token
	Token() string
}

// UUIDRandom implements Random with random (version 4) UUIDs.
// uuid reads from crypto/rand, so tokens are unguessable as well as unique.
type UUIDRandom struct{}

// New creates a new UUIDRandom
func New() *UUIDRandom {
	return &UUIDRandom{}
}

// Token returns a new random UUID string
func (r *UUIDRandom) Token() string {
	return uuid.NewString()
}
