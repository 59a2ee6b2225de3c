package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var u User
	assert.False(t, u.LockedAt(now), "no lock window means not locked")

	until := now.Add(30 * time.Minute)
	u.LockUntil = &until
	assert.True(t, u.LockedAt(now))
	assert.True(t, u.LockedAt(until.Add(-time.Second)))
	assert.False(t, u.LockedAt(until), "lock ends exactly at the boundary")
	assert.False(t, u.LockedAt(until.Add(time.Hour)))
}

func TestPublicStripsCredentialMaterial(t *testing.T) {
	verify := "verify-token"
	reset := "reset-token"
	exp := time.Now().UTC().Add(time.Hour)
	u := User{
		ID:                7,
		Email:             "amina@example.org",
		Username:          "amina",
		PasswordHash:      "$2a$12$secret",
		FullName:          "Amina Rao",
		Role:              RoleFieldOfficer,
		IsActive:          true,
		LoginAttempts:     3,
		VerificationToken: &verify,
		ResetToken:        &reset,
		ResetExpires:      &exp,
	}

	out, err := json.Marshal(u.Public())
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, "secret")
	assert.NotContains(t, s, "verify-token")
	assert.NotContains(t, s, "reset-token")
	assert.NotContains(t, s, "login_attempts")
	assert.Contains(t, s, `"email":"amina@example.org"`)
	assert.Contains(t, s, `"role":"field_officer"`)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleFieldOfficer))
	assert.True(t, ValidRole(RoleViewer))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole(""))
}
