package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

const testSecret = "unit-test-secret"

func testUser() *model.User {
	return &model.User{ID: 42, Email: "officer@example.org", Role: model.RoleFieldOfficer}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testUser(), 15, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "officer@example.org", claims.Email)
	assert.Equal(t, model.RoleFieldOfficer, claims.Role)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testUser(), 15, time.Now())
	require.NoError(t, err)

	_, err = ParseAccessToken("a-different-secret", tok.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestParseAccessTokenGarbage(t *testing.T) {
	_, err := ParseAccessToken(testSecret, "not.a.jwt")
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestParseAccessTokenExpired(t *testing.T) {
	// A negative TTL mints an already-expired token.
	tok, err := NewAccessToken(testSecret, testUser(), -1, time.Now())
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.ExpiredToken, apperr.KindOf(err),
		"expired must be distinguishable from invalid")
}

func TestNewRefreshToken(t *testing.T) {
	issued := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	a, err := NewRefreshToken(7, issued)
	require.NoError(t, err)
	b, err := NewRefreshToken(7, issued)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 80, "40 random bytes hex-encoded")
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Equal(t, issued.Add(7*24*time.Hour), a.Exp,
		"expiry derives from the supplied instant, not the wall clock")
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("some-raw-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw("some-raw-token"))
	assert.NotEqual(t, h, HashRefreshRaw("other-raw-token"))
	assert.NotContains(t, h, "some-raw-token")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 4)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.NotContains(t, hash, "correct horse")
}
