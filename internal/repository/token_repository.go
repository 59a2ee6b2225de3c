package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

// TokenRepo persists and validates refresh tokens.  Only the SHA-256 hash
// of a token ever reaches this layer.  Tokens are never deleted; revocation
// marks them and keeps the row as an audit trail.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row with its origin metadata.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time, ip, userAgent string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_by_ip, user_agent) VALUES (?,?,?,?,?)",
		userID, tokenHash, exp, ip, userAgent)
	return err
}

// FindActiveByHash returns the token row only when it is active: present,
// not revoked and not expired.  Callers must not re-check activity; this
// store is the single source of truth for it.  All three failure cases are
// indistinguishable to the caller.
func (r *TokenRepo) FindActiveByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_by_ip, user_agent, created_at
		 FROM refresh_tokens WHERE token_hash=? LIMIT 1`,
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt,
		&t.ReplacedBy, &t.CreatedByIP, &t.UserAgent, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	if !t.ActiveAt(time.Now().UTC()) {
		return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
	}
	return &t, nil
}

// RevokeAllForUser revokes all of a user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// RevokeAndReplace revokes the old token and records the hash of its
// replacement, chaining the rotation.  Revocation is monotonic: an already
// revoked token is left untouched.
func (r *TokenRepo) RevokeAndReplace(ctx context.Context, oldHash, newHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(), replaced_by=? WHERE token_hash=? AND revoked_at IS NULL",
		newHash, oldHash)
	return err
}
