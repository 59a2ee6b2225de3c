package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "username", "password_hash", "full_name", "phone_number",
		"organization", "role", "is_active", "is_email_verified", "login_attempts",
		"lock_until", "last_login", "verification_token", "reset_token",
		"reset_expires", "created_at", "updated_at",
	})
}

func TestUserCreateFillsID(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("amina@example.org", "amina", "hash", "Amina Rao", "", "", model.RoleViewer, true, nil).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{Email: "Amina@Example.org ", Username: "amina", PasswordHash: "hash", FullName: "Amina Rao", Role: model.RoleViewer, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(7), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateIsConflict(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Email: "amina@example.org"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNormalizesAndMapsNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs("amina@example.org").
		WillReturnRows(userRows().AddRow(
			7, "amina@example.org", "amina", "hash", "Amina Rao", "", "",
			model.RoleFieldOfficer, true, true, 0, nil, nil, nil, nil, nil, now, now))

	u, err := repo.FindByEmail(context.Background(), "  AMINA@example.org ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleFieldOfficer, u.Role)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs("nobody@example.org").
		WillReturnRows(userRows())

	_, err = repo.FindByEmail(context.Background(), "nobody@example.org")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginFailureSetsLockInOneStatement(t *testing.T) {
	repo, mock := newUserRepo(t)

	// The threshold comparison and the lock assignment must travel in the
	// same UPDATE so concurrent failures cannot race past the limit.
	mock.ExpectExec(`UPDATE users SET\s+lock_until = IF\(login_attempts \+ 1 >= \?`).
		WithArgs(5, 1800, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordLoginFailure(context.Background(), 7, 5, 30*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordClearsTokenWithHash(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`UPDATE users SET password_hash=\?, reset_token=NULL, reset_expires=NULL`).
		WithArgs("newhash", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ResetPassword(context.Background(), 7, "newhash"))

	// Unknown id: zero rows affected reports NotFound.
	mock.ExpectExec(`UPDATE users SET password_hash=\?, reset_token=NULL, reset_expires=NULL`).
		WithArgs("newhash", uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.ResetPassword(context.Background(), 99, "newhash")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByResetTokenChecksExpiry(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE reset_token=\? AND reset_expires > \?`).
		WithArgs("tok", now).
		WillReturnRows(userRows())

	_, err := repo.FindByResetToken(context.Background(), "tok", now)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
