package model

import "time"

// Roles recognised by the service.  The role column stores one of these
// values and the authorization middleware compares against them.
const (
	RoleAdmin        = "admin"
	RoleFieldOfficer = "field_officer"
	RoleViewer       = "viewer"
)

// ValidRole reports whether s is one of the recognised role names.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleFieldOfficer || s == RoleViewer
}

// User mirrors the `users` table.  The struct is passive: derived state
// such as "locked" is computed by pure functions that take the clock as an
// argument, never stored.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Email            – unique email address.
//	Username         – unique login/display name.
//	PasswordHash     – bcrypt hashed password, never serialized outward.
//	FullName         – display name.
//	PhoneNumber      – optional contact number.
//	Organization     – optional affiliation.
//	Role             – admin | field_officer | viewer.
//	IsActive         – whether the account may authenticate.
//	IsEmailVerified  – set once the verification token is redeemed.
//	LoginAttempts    – consecutive failed logins since the last success.
//	LockUntil        – end of the lockout window (nil when not locked).
//	LastLogin        – timestamp of the last successful login.
//	VerificationToken – one-time email-verification token (nil once used).
//	ResetToken       – one-time password-reset token (nil unless requested).
//	ResetExpires     – expiry of the reset token.
type User struct {
	ID                uint64     // users.id
	Email             string     // users.email
	Username          string     // users.username
	PasswordHash      string     // users.password_hash
	FullName          string     // users.full_name
	PhoneNumber       string     // users.phone_number
	Organization      string     // users.organization
	Role              string     // users.role
	IsActive          bool       // users.is_active
	IsEmailVerified   bool       // users.is_email_verified
	LoginAttempts     int        // users.login_attempts
	LockUntil         *time.Time // users.lock_until (nullable)
	LastLogin         *time.Time // users.last_login (nullable)
	VerificationToken *string    // users.verification_token (nullable)
	ResetToken        *string    // users.reset_token (nullable)
	ResetExpires      *time.Time // users.reset_expires (nullable)
	CreatedAt         time.Time  // users.created_at
	UpdatedAt         time.Time  // users.updated_at
}

// LockedAt reports whether the account is locked out at the given instant.
// Locked means a lock window was set and has not yet elapsed.
func (u User) LockedAt(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// PublicUser is the sanitized outward representation of a User.  It is the
// only user shape handlers may serialize: no password hash, no one-time
// tokens, no lockout counters.
type PublicUser struct {
	ID              uint64     `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FullName        string     `json:"full_name"`
	PhoneNumber     string     `json:"phone_number,omitempty"`
	Organization    string     `json:"organization,omitempty"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Public strips credential material and returns the sanitized view.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		FullName:        u.FullName,
		PhoneNumber:     u.PhoneNumber,
		Organization:    u.Organization,
		Role:            u.Role,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
}
