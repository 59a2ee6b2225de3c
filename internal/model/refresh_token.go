package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and carries metadata for expiry, revocation and
// rotation.  The plain token is never stored; only its SHA-256 hash.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – owner of the token.
//	TokenHash  – SHA-256 hex digest of the token value.
//	ExpiresAt  – expiration timestamp of the token.
//	RevokedAt  – when the token was revoked (nil if still active).
//	ReplacedBy – hash of the token that superseded this one on rotation.
//	CreatedByIP – network address that requested the token.
//	UserAgent  – client agent string that requested the token.
type RefreshToken struct {
	ID          uint64     // refresh_tokens.id
	UserID      uint64     // refresh_tokens.user_id
	TokenHash   string     // refresh_tokens.token_hash
	ExpiresAt   time.Time  // refresh_tokens.expires_at
	RevokedAt   *time.Time // refresh_tokens.revoked_at (nullable)
	ReplacedBy  *string    // refresh_tokens.replaced_by (nullable)
	CreatedByIP string     // refresh_tokens.created_by_ip
	UserAgent   string     // refresh_tokens.user_agent
	CreatedAt   time.Time  // refresh_tokens.created_at
}

// ExpiredAt reports whether the token's lifetime has elapsed at now.
func (t RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ActiveAt reports whether the token may still be used at now: not revoked
// and not expired.
func (t RefreshToken) ActiveAt(now time.Time) bool {
	return t.RevokedAt == nil && !t.ExpiredAt(now)
}
