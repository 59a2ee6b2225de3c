package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	assert.True(t, VerifyPassword(hash, "correct horse battery"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "correct horse battery"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the bcrypt default instead of failing
	// or producing a weaker hash than configured.
	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1} {
		hash, err := HashPassword("pw", cost)
		require.NoError(t, err)
		got, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, got)
	}
}
