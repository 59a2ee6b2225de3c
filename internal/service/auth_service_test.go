package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/config"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/queue"
	"github.com/treenetra/treenetra/internal/utils"
)

// --- Mocks ---

// memUserStore is an in-memory UserStore.  Its clock is shared with the
// service under test so lockout math lines up.
type memUserStore struct {
	byID   map[uint64]*model.User
	nextID uint64
	now    func() time.Time

	failureCalls int
}

func newMemUserStore(now func() time.Time) *memUserStore {
	return &memUserStore{byID: map[uint64]*model.User{}, nextID: 1, now: now}
}

func (m *memUserStore) Create(_ context.Context, u *model.User) error {
	for _, ex := range m.byID {
		if ex.Email == u.Email || ex.Username == u.Username {
			return apperr.New(apperr.Conflict, "email or username already registered")
		}
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (m *memUserStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) RecordLoginSuccess(_ context.Context, id uint64) error {
	u := m.byID[id]
	u.LoginAttempts = 0
	u.LockUntil = nil
	now := m.now()
	u.LastLogin = &now
	return nil
}

func (m *memUserStore) RecordLoginFailure(_ context.Context, id uint64, threshold int, lockFor time.Duration) error {
	m.failureCalls++
	u := m.byID[id]
	u.LoginAttempts++
	if u.LoginAttempts >= threshold {
		until := m.now().Add(lockFor)
		u.LockUntil = &until
	}
	return nil
}

func (m *memUserStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	m.byID[id].PasswordHash = hash
	return nil
}

func (m *memUserStore) SetResetToken(_ context.Context, id uint64, token string, expires time.Time) error {
	u := m.byID[id]
	u.ResetToken = &token
	u.ResetExpires = &expires
	return nil
}

func (m *memUserStore) FindByResetToken(_ context.Context, token string, now time.Time) (*model.User, error) {
	for _, u := range m.byID {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetExpires != nil && u.ResetExpires.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "token not found")
}

func (m *memUserStore) ResetPassword(_ context.Context, id uint64, hash string) error {
	u := m.byID[id]
	u.PasswordHash = hash
	u.ResetToken = nil
	u.ResetExpires = nil
	return nil
}

func (m *memUserStore) FindByVerificationToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range m.byID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "token not found")
}

func (m *memUserStore) MarkEmailVerified(_ context.Context, id uint64) error {
	u := m.byID[id]
	u.IsEmailVerified = true
	u.VerificationToken = nil
	return nil
}

// memTokenStore is an in-memory TokenStore keyed by token hash.
type memTokenStore struct {
	byHash   map[string]*model.RefreshToken
	now      func() time.Time
	failNext error
}

func newMemTokenStore(now func() time.Time) *memTokenStore {
	return &memTokenStore{byHash: map[string]*model.RefreshToken{}, now: now}
}

func (m *memTokenStore) Store(_ context.Context, userID uint64, hash string, exp time.Time, ip, ua string) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.byHash[hash] = &model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedByIP: ip, UserAgent: ua}
	return nil
}

func (m *memTokenStore) FindActiveByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
	t, ok := m.byHash[hash]
	if !ok || !t.ActiveAt(m.now()) {
		return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
	}
	cp := *t
	return &cp, nil
}

func (m *memTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	now := m.now()
	for _, t := range m.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			rt := now
			t.RevokedAt = &rt
		}
	}
	return nil
}

func (m *memTokenStore) RevokeAndReplace(_ context.Context, oldHash, newHash string) error {
	t, ok := m.byHash[oldHash]
	if !ok {
		return apperr.New(apperr.NotFound, "token not found")
	}
	now := m.now()
	t.RevokedAt = &now
	t.ReplacedBy = &newHash
	return nil
}

// mailRecorder captures published jobs instead of touching a broker.
type mailRecorder struct {
	jobs []queue.EmailJob
	err  error
}

func (m *mailRecorder) PublishEmail(_ context.Context, job queue.EmailJob) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

// --- Fixture ---

type fixture struct {
	svc    *AuthService
	users  *memUserStore
	tokens *memTokenStore
	mail   *mailRecorder
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{clock: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	now := func() time.Time { return f.clock }
	f.users = newMemUserStore(now)
	f.tokens = newMemTokenStore(now)
	f.mail = &mailRecorder{}
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // minimum cost keeps the suite fast
		AppURL:         "http://localhost:3000",
	}
	f.svc = NewAuthService(cfg, f.users, f.tokens, f.mail, zap.NewNop())
	f.svc.now = now
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) register(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: password,
		Username: email[:len(email)-len("@example.org")],
		FullName: "Test User",
	}, "10.0.0.1", "go-test")
	require.NoError(t, err)
	return res
}

// --- Tests ---

func TestRegisterIssuesPairAndQueuesVerification(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")

	assert.Equal(t, model.RoleViewer, res.User.Role, "self-registration never grants elevated roles")
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.Len(t, res.Tokens.RefreshToken, 80)

	// Token lifetimes follow the service clock, not the wall clock.
	assert.Equal(t, f.clock.Add(7*24*time.Hour), res.Tokens.RefreshExpires)
	assert.Equal(t, f.clock.Add(15*time.Minute), res.Tokens.AccessExpires)

	// Only the hash of the refresh token reaches the store.
	_, rawStored := f.tokens.byHash[res.Tokens.RefreshToken]
	assert.False(t, rawStored)
	_, hashStored := f.tokens.byHash[utils.HashRefreshRaw(res.Tokens.RefreshToken)]
	assert.True(t, hashStored)

	require.Len(t, f.mail.jobs, 1)
	assert.Equal(t, "amina@example.org", f.mail.jobs[0].To)
	assert.Contains(t, f.mail.jobs[0].Subject, "Verify")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "amina@example.org", "str0ng-passw0rd")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "amina@example.org",
		Password: "another-passw0rd",
		Username: "other",
		FullName: "Other",
	}, "", "")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRegisterMailFailureDoesNotFailRegistration(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("broker down")

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "amina@example.org",
		Password: "str0ng-passw0rd",
		Username: "amina",
		FullName: "Amina Rao",
	}, "", "")
	require.NoError(t, err, "mail is fire-and-forget")
	assert.NotEmpty(t, res.Tokens.AccessToken)
}

func TestLoginUnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "amina@example.org", "str0ng-passw0rd")

	_, errUnknown := f.svc.Login(context.Background(), "nobody@example.org", "whatever", "", "")
	_, errWrong := f.svc.Login(context.Background(), "amina@example.org", "wrong-password", "", "")

	assert.Equal(t, apperr.InvalidCredentials, apperr.KindOf(errUnknown))
	assert.Equal(t, apperr.InvalidCredentials, apperr.KindOf(errWrong))
	assert.Equal(t, errUnknown.Error(), errWrong.Error(),
		"responses must not reveal whether the account exists")
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	uid := res.User.ID

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := f.svc.Login(context.Background(), "amina@example.org", "wrong", "", "")
		assert.Equal(t, apperr.InvalidCredentials, apperr.KindOf(err))
	}
	assert.Equal(t, maxLoginAttempts, f.users.failureCalls)
	require.NotNil(t, f.users.byID[uid].LockUntil)

	// Correct password is refused while locked, and does not burn an attempt.
	_, err := f.svc.Login(context.Background(), "amina@example.org", "str0ng-passw0rd", "", "")
	assert.Equal(t, apperr.AccountLocked, apperr.KindOf(err))
	assert.Equal(t, maxLoginAttempts, f.users.failureCalls)

	// Still locked one second before the window closes.
	f.advance(lockoutWindow - time.Second)
	_, err = f.svc.Login(context.Background(), "amina@example.org", "str0ng-passw0rd", "", "")
	assert.Equal(t, apperr.AccountLocked, apperr.KindOf(err))

	// Open again once the window elapses; success resets the counter.
	f.advance(time.Second)
	got, err := f.svc.Login(context.Background(), "amina@example.org", "str0ng-passw0rd", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Tokens.AccessToken)
	assert.Equal(t, 0, f.users.byID[uid].LoginAttempts)
	assert.Nil(t, f.users.byID[uid].LockUntil)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	f.users.byID[res.User.ID].IsActive = false

	_, err := f.svc.Login(context.Background(), "amina@example.org", "str0ng-passw0rd", "", "")
	assert.Equal(t, apperr.AccountInactive, apperr.KindOf(err))
}

func TestLoginStoreFailureLeavesNoHalfIssuedPair(t *testing.T) {
	f := newFixture(t)
	f.register(t, "amina@example.org", "str0ng-passw0rd")
	f.tokens.byHash = map[string]*model.RefreshToken{} // drop the registration pair
	f.tokens.failNext = errors.New("disk full")

	_, err := f.svc.Login(context.Background(), "amina@example.org", "str0ng-passw0rd", "", "")
	require.Error(t, err)
	assert.Empty(t, f.tokens.byHash, "no refresh token may survive a failed issuance")
}

func TestRefreshDoesNotRotate(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	raw := res.Tokens.RefreshToken

	access, err := f.svc.Refresh(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEmpty(t, access.Token)

	// The same refresh token keeps working.
	_, err = f.svc.Refresh(context.Background(), raw)
	assert.NoError(t, err)
	assert.Len(t, f.tokens.byHash, 1)
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")

	require.NoError(t, f.svc.Logout(context.Background(), res.User.ID))

	_, err := f.svc.Refresh(context.Background(), res.Tokens.RefreshToken)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")

	f.advance(8 * 24 * time.Hour)
	_, err := f.svc.Refresh(context.Background(), res.Tokens.RefreshToken)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestRefreshDeactivatedOwner(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	f.users.byID[res.User.ID].IsActive = false

	_, err := f.svc.Refresh(context.Background(), res.Tokens.RefreshToken)
	assert.Equal(t, apperr.AccountInactive, apperr.KindOf(err))
}

func TestRotateChainsReplacement(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	oldRaw := res.Tokens.RefreshToken
	oldHash := utils.HashRefreshRaw(oldRaw)

	rotated, err := f.svc.Rotate(context.Background(), oldRaw, "10.0.0.2", "go-test")
	require.NoError(t, err)
	assert.NotEqual(t, oldRaw, rotated.Tokens.RefreshToken)

	old := f.tokens.byHash[oldHash]
	require.NotNil(t, old.RevokedAt)
	require.NotNil(t, old.ReplacedBy)
	assert.Equal(t, utils.HashRefreshRaw(rotated.Tokens.RefreshToken), *old.ReplacedBy)

	// The retired token is dead, the successor works.
	_, err = f.svc.Refresh(context.Background(), oldRaw)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
	_, err = f.svc.Refresh(context.Background(), rotated.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ForgotPassword(context.Background(), "nobody@example.org")
	assert.NoError(t, err, "unknown email must look exactly like success")
	assert.Empty(t, f.mail.jobs)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	f.mail.jobs = nil

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "amina@example.org"))
	require.Len(t, f.mail.jobs, 1)
	assert.Contains(t, f.mail.jobs[0].Subject, "Reset")

	u := f.users.byID[res.User.ID]
	require.NotNil(t, u.ResetToken)
	assert.Equal(t, f.clock.Add(resetTokenTTL), *u.ResetExpires)
	token := *u.ResetToken

	// Garbage token fails with the merged kind.
	err := f.svc.ResetPassword(context.Background(), "bogus", "new-passw0rd!")
	assert.Equal(t, apperr.InvalidOrExpiredToken, apperr.KindOf(err))

	// The real token works and is consumed.
	require.NoError(t, f.svc.ResetPassword(context.Background(), token, "new-passw0rd!"))
	assert.Nil(t, f.users.byID[res.User.ID].ResetToken)

	_, err = f.svc.Login(context.Background(), "amina@example.org", "str0ng-passw0rd", "", "")
	assert.Equal(t, apperr.InvalidCredentials, apperr.KindOf(err))
	_, err = f.svc.Login(context.Background(), "amina@example.org", "new-passw0rd!", "", "")
	assert.NoError(t, err)
}

func TestResetTokenExpiresAfterAnHour(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "amina@example.org"))
	token := *f.users.byID[res.User.ID].ResetToken

	f.advance(resetTokenTTL + time.Minute)
	err := f.svc.ResetPassword(context.Background(), token, "new-passw0rd!")
	assert.Equal(t, apperr.InvalidOrExpiredToken, apperr.KindOf(err),
		"expired and unknown tokens must be indistinguishable")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")

	err := f.svc.ChangePassword(context.Background(), res.User.ID, "wrong-current", "new-passw0rd!")
	assert.Equal(t, apperr.InvalidCredentials, apperr.KindOf(err))

	require.NoError(t, f.svc.ChangePassword(context.Background(), res.User.ID, "str0ng-passw0rd", "new-passw0rd!"))
	_, err = f.svc.Login(context.Background(), "amina@example.org", "new-passw0rd!", "", "")
	assert.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "amina@example.org", "str0ng-passw0rd")
	f.mail.jobs = nil

	err := f.svc.VerifyEmail(context.Background(), "bogus")
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))

	token := *f.users.byID[res.User.ID].VerificationToken
	require.NoError(t, f.svc.VerifyEmail(context.Background(), token))
	assert.True(t, f.users.byID[res.User.ID].IsEmailVerified)
	assert.Nil(t, f.users.byID[res.User.ID].VerificationToken)

	require.Len(t, f.mail.jobs, 1, "welcome mail after verification")
	assert.Contains(t, f.mail.jobs[0].Subject, "Welcome")
}
