package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPasswordHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("supernintendo chalmers")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, hasher.Verify(hash, "supernintendo chalmers"))
	assert.Error(t, hasher.Verify(hash, "wrong password"))
}

func TestBcryptPasswordHasherDefaultCost(t *testing.T) {
	hasher := NewBcryptPasswordHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, hasher.Cost)
}
