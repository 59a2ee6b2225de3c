package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding and decoding functions
	"errors"        // sentinel comparison for jwt parse failures
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/treenetra/treenetra/internal/apperr" // error taxonomy kinds
	"github.com/treenetra/treenetra/internal/model"  // user record for claims
)

// AccessClaims are the claims embedded in every access token: the identity's
// id (subject), email and role, plus the registered expiry/issued-at pair.
// The token is self-contained; verification needs only the signing secret.
type AccessClaims struct {
	Email string `json:"email"` // identity email, informational
	Role  string `json:"role"`  // role used by the authorization gate
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens.  The Raw field contains the raw token string returned to the
// client.  In the database only a SHA-256 hash of the raw string is stored.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user record, a TTL in minutes and the issuing instant,
// and returns the signed token together with its expiration time.  The
// caller supplies the clock so expiry stays consistent with the rest of the
// session it belongs to.
func NewAccessToken(secret string, u *model.User, ttlMin int, now time.Time) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatUint(u.ID),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature and structure of a signed access
// token and returns its claims.  Expired tokens and malformed/forged tokens
// fail with distinct kinds because callers respond differently: expired
// suggests a refresh, invalid is rejected outright.
func ParseAccessToken(secret, signed string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(err, apperr.ExpiredToken, "access token expired")
		}
		return nil, apperr.Wrap(err, apperr.InvalidToken, "invalid access token")
	}
	if !tok.Valid {
		return nil, apperr.New(apperr.InvalidToken, "invalid access token")
	}
	return claims, nil
}

// UserID parses the subject claim back into a numeric identifier.
func (c *AccessClaims) UserID() (uint64, error) {
	return parseUint(c.Subject)
}

// NewRefreshToken returns a cryptographically random opaque token expiring
// ttlDays after the given instant.  40 random bytes give 320 bits of
// entropy.
func NewRefreshToken(ttlDays int, now time.Time) (RefreshToken, error) {
	raw, err := randomHex(40) // 40 bytes -> 80 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: now.UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash prevents attackers from using stolen
// database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  Used for refresh tokens and the
// one-time verification/reset tokens.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewOneTimeToken returns a random token for email verification and
// password reset links (32 bytes, 64 hex chars).
func NewOneTimeToken() (string, error) {
	return randomHex(32)
}
