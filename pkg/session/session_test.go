package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
)

func TestGenerateTokenIsUnique(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestAuthorize(t *testing.T) {
	s, err := NewRandom()
	require.NoError(t, err)

	assert.NoError(t, s.Authorize(s.Token()))

	err = s.Authorize("wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, capability.ErrUnauthorized)

	err = s.Authorize("")
	assert.ErrorIs(t, err, capability.ErrUnauthorized)
}

func TestEmptyTokenRejected(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	s, err := New("fixed-token")
	require.NoError(t, err)

	k1, err := s.DeriveKey("conn-1", "framing", 32)
	require.NoError(t, err)
	require.Len(t, k1, 32)

	// Deterministic for the same inputs.
	again, err := s.DeriveKey("conn-1", "framing", 32)
	require.NoError(t, err)
	assert.Equal(t, k1, again)

	// Distinct per connection and per usage domain.
	k2, err := s.DeriveKey("conn-2", "framing", 32)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	k3, err := s.DeriveKey("conn-1", "logging", 32)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}
