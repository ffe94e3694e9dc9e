package random

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIsUUID(t *testing.T) {
	token := New().Token()

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestTokensAreDistinct(t *testing.T) {
	r := New()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := r.Token()
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}
