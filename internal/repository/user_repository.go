package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, username, password_hash, full_name, phone_number, organization, role, is_active, is_email_verified, login_attempts, lock_until, last_login, verification_token, reset_token, reset_expires, created_at, updated_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName,
		&u.PhoneNumber, &u.Organization, &u.Role, &u.IsActive, &u.IsEmailVerified,
		&u.LoginAttempts, &u.LockUntil, &u.LastLogin, &u.VerificationToken,
		&u.ResetToken, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and fills in its ID.  Duplicate email or username
// surfaces as Conflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, full_name, phone_number, organization, role, is_active, verification_token)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		strings.ToLower(strings.TrimSpace(u.Email)), u.Username, u.PasswordHash,
		u.FullName, u.PhoneNumber, u.Organization, u.Role, u.IsActive, u.VerificationToken)
	if err != nil {
		if isDuplicate(err) {
			return apperr.Wrap(err, apperr.Conflict, "user with this email or username already exists")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// FindByUsername fetches a user by username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// RecordLoginSuccess resets the failure counter and lock window and stamps
// the last login.
func (r *UserRepo) RecordLoginSuccess(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=0, lock_until=NULL, last_login=UTC_TIMESTAMP() WHERE id=?", id)
	return err
}

// RecordLoginFailure atomically increments the failure counter and, when
// the incremented value reaches the threshold, sets the lock window in the
// same statement.  The conditional update avoids the read-modify-write race
// between concurrent failed attempts.
func (r *UserRepo) RecordLoginFailure(ctx context.Context, id uint64, threshold int, lockFor time.Duration) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
		   lock_until = IF(login_attempts + 1 >= ?, DATE_ADD(UTC_TIMESTAMP(), INTERVAL ? SECOND), lock_until),
		   login_attempts = login_attempts + 1
		 WHERE id=?`,
		threshold, int(lockFor.Seconds()), id)
	return err
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	return r.execOne(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
}

// SetResetToken stores a one-time password-reset token with its expiry.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, token string, expires time.Time) error {
	return r.execOne(ctx, "UPDATE users SET reset_token=?, reset_expires=? WHERE id=?", token, expires, id)
}

// FindByResetToken returns the user holding a matching, unexpired reset
// token.  Expired and unknown tokens are indistinguishable to the caller.
func (r *UserRepo) FindByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token=? AND reset_expires > ? LIMIT 1", token, now))
}

// ClearResetToken removes the reset token after use, together with the new
// password hash in one statement.
func (r *UserRepo) ResetPassword(ctx context.Context, id uint64, hash string) error {
	return r.execOne(ctx,
		"UPDATE users SET password_hash=?, reset_token=NULL, reset_expires=NULL WHERE id=?", hash, id)
}

// FindByVerificationToken returns the user holding the verification token.
func (r *UserRepo) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE verification_token=? LIMIT 1", token))
}

// MarkEmailVerified sets the verified flag and consumes the token.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uint64) error {
	return r.execOne(ctx,
		"UPDATE users SET is_email_verified=1, verification_token=NULL WHERE id=?", id)
}

// List returns a page of users with optional role and active filters, plus
// the unfiltered total for pagination.
func (r *UserRepo) List(ctx context.Context, role string, active *bool, page, limit int) ([]model.User, int, error) {
	where := "1=1"
	args := []any{}
	if role != "" {
		where += " AND role=?"
		args = append(args, role)
	}
	if active != nil {
		where += " AND is_active=?"
		args = append(args, *active)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

// UpdateProfile changes only the profile fields a user may edit themselves.
// Callers verify existence first; a no-op update is not an error here
// because MySQL reports zero affected rows when values are unchanged.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, phone, org string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, phone_number=?, organization=? WHERE id=?",
		fullName, phone, org, id)
	return err
}

// UpdateRole changes a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	return err
}

// UpdateStatus activates or deactivates an account.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}

// execOne runs an update whose SET clause always changes the row (fresh
// hashes, random tokens) and reports NotFound when no row matched.
func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}
