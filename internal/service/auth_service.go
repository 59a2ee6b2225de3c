// Package service holds the business logic between handlers and
// repositories.  AuthService is the session core: credential verification,
// token issuance, lockout and the recovery flows.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/config"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/queue"
	"github.com/treenetra/treenetra/internal/utils"
)

// Lockout and recovery policy.
const (
	maxLoginAttempts = 5                // consecutive failures before lockout
	lockoutWindow    = 30 * time.Minute // how long a locked account stays locked
	resetTokenTTL    = time.Hour        // lifetime of a password-reset token
)

// UserStore is the credential-store surface AuthService needs.  Implemented
// by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	RecordLoginSuccess(ctx context.Context, id uint64) error
	RecordLoginFailure(ctx context.Context, id uint64, threshold int, lockFor time.Duration) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	SetResetToken(ctx context.Context, id uint64, token string, expires time.Time) error
	FindByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	ResetPassword(ctx context.Context, id uint64, hash string) error
	FindByVerificationToken(ctx context.Context, token string) (*model.User, error)
	MarkEmailVerified(ctx context.Context, id uint64) error
}

// TokenStore is the refresh-token surface AuthService needs.  Implemented
// by repository.TokenRepo.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time, ip, userAgent string) error
	FindActiveByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
	RevokeAndReplace(ctx context.Context, oldHash, newHash string) error
}

// MailPublisher enqueues outbound mail.  Implemented by EmailPublisher.
type MailPublisher interface {
	PublishEmail(ctx context.Context, job queue.EmailJob) error
}

// AuthService orchestrates the session lifecycle.  All state lives in the
// stores; the service itself is safe for concurrent use.
type AuthService struct {
	cfg    config.Config
	users  UserStore
	tokens TokenStore
	mail   MailPublisher
	log    *zap.Logger
	now    func() time.Time // injected clock, time.Now in production
}

func NewAuthService(cfg config.Config, users UserStore, tokens TokenStore, mail MailPublisher, log *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens, mail: mail, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Email        string
	Password     string
	Username     string
	FullName     string
	PhoneNumber  string
	Organization string
}

// TokenPair carries a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken    string    `json:"access_token"`
	AccessExpires  time.Time `json:"access_expires"`
	RefreshToken   string    `json:"refresh_token"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

// AuthResult is the outcome of register/login: the sanitized identity and
// its token pair.
type AuthResult struct {
	User   model.PublicUser `json:"user"`
	Tokens TokenPair        `json:"tokens"`
}

// Register creates a new identity, queues the verification mail and logs
// the user straight in.  Duplicate email/username surfaces as Conflict
// from the store.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, ip, userAgent string) (*AuthResult, error) {
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	verifyToken, err := utils.NewOneTimeToken()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:             in.Email,
		Username:          in.Username,
		PasswordHash:      hash,
		FullName:          in.FullName,
		PhoneNumber:       in.PhoneNumber,
		Organization:      in.Organization,
		Role:              model.RoleViewer,
		IsActive:          true,
		VerificationToken: &verifyToken,
		CreatedAt:         s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	subject, html := verificationEmail(s.cfg.AppURL, verifyToken)
	s.enqueueMail(ctx, u.Email, subject, html)

	pair, err := s.issuePair(ctx, u, ip, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u.Public(), Tokens: *pair}, nil
}

// Login verifies credentials and issues a token pair.  Unknown email and
// wrong password produce the identical InvalidCredentials error so the
// response never reveals which was wrong.  A locked account fails with
// AccountLocked without consuming an attempt.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, apperr.New(apperr.InvalidCredentials, "invalid credentials")
		}
		return nil, err
	}
	if u.LockedAt(s.now()) {
		return nil, apperr.New(apperr.AccountLocked, "account is locked, try again later")
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.AccountInactive, "account is deactivated")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		// The store increments atomically and sets the lock window in the
		// same statement when the threshold is reached.
		if ferr := s.users.RecordLoginFailure(ctx, u.ID, maxLoginAttempts, lockoutWindow); ferr != nil {
			s.log.Error("recording login failure", zap.Uint64("user_id", u.ID), zap.Error(ferr))
		}
		return nil, apperr.New(apperr.InvalidCredentials, "invalid credentials")
	}

	if err := s.users.RecordLoginSuccess(ctx, u.ID); err != nil {
		return nil, err
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	now := s.now()
	u.LastLogin = &now

	pair, err := s.issuePair(ctx, u, ip, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u.Public(), Tokens: *pair}, nil
}

// Logout revokes every active refresh token of the identity.  The access
// token currently held by the client stays valid until its natural expiry;
// the authentication gate's activity check is the only backstop for that.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// Refresh exchanges a still-active refresh token for a new access token.
// The refresh token is not rotated here; clients that want rotation call
// Rotate.  A deactivated owner fails with AccountInactive.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*utils.AccessToken, error) {
	t, err := s.tokens.FindActiveByHash(ctx, utils.HashRefreshRaw(rawToken))
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.AccountInactive, "account is deactivated")
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u, s.cfg.AccessTTLMin, s.now())
	if err != nil {
		return nil, err
	}
	return &access, nil
}

// Rotate replaces a refresh token: the old one is revoked with a pointer
// to its successor, and a fresh pair is returned.
func (s *AuthService) Rotate(ctx context.Context, rawToken, ip, userAgent string) (*AuthResult, error) {
	oldHash := utils.HashRefreshRaw(rawToken)
	t, err := s.tokens.FindActiveByHash(ctx, oldHash)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, apperr.New(apperr.InvalidToken, "invalid refresh token")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.AccountInactive, "account is deactivated")
	}

	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u, s.cfg.AccessTTLMin, s.now())
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays, s.now())
	if err != nil {
		return nil, err
	}
	newHash := utils.HashRefreshRaw(refresh.Raw)
	if err := s.tokens.Store(ctx, u.ID, newHash, refresh.Exp, ip, userAgent); err != nil {
		return nil, err
	}
	if err := s.tokens.RevokeAndReplace(ctx, oldHash, newHash); err != nil {
		return nil, err
	}
	return &AuthResult{User: u.Public(), Tokens: TokenPair{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   refresh.Raw,
		RefreshExpires: refresh.Exp,
	}}, nil
}

// ForgotPassword starts the reset flow.  The outcome is success-shaped
// whether or not the email exists so the endpoint cannot be used to
// enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil // deliberately indistinguishable from success
		}
		return err
	}
	token, err := utils.NewOneTimeToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}
	subject, html := passwordResetEmail(s.cfg.AppURL, token)
	s.enqueueMail(ctx, u.Email, subject, html)
	return nil
}

// ResetPassword redeems a reset token.  Expired and unknown tokens fail
// with the same merged kind so the response leaks neither condition.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.users.FindByResetToken(ctx, token, s.now())
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return apperr.New(apperr.InvalidOrExpiredToken, "invalid or expired reset token")
		}
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, u.ID, hash)
}

// ChangePassword rehashes and stores a new password after verifying the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return apperr.New(apperr.InvalidCredentials, "current password is incorrect")
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// VerifyEmail redeems an email-verification token and queues the welcome
// mail.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return apperr.New(apperr.InvalidToken, "invalid verification token")
		}
		return err
	}
	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return err
	}
	subject, html := welcomeEmail(u.FullName)
	s.enqueueMail(ctx, u.Email, subject, html)
	return nil
}

// Me returns the sanitized identity for the /auth/me endpoint.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*model.PublicUser, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// issuePair mints the access token first (pure computation) and persists
// the refresh token second, so a persistence failure surfaces as a request
// failure and never leaves a half-issued pair with the client.
func (s *AuthService) issuePair(ctx context.Context, u *model.User, ip, userAgent string) (*TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u, s.cfg.AccessTTLMin, s.now())
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp, ip, userAgent); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   refresh.Raw, // raw goes back to the client, only the hash was stored
		RefreshExpires: refresh.Exp,
	}, nil
}

// enqueueMail publishes a mail job and only logs on failure: mail delivery
// is triggered, never awaited, and never fails the calling operation.
func (s *AuthService) enqueueMail(ctx context.Context, to, subject, html string) {
	if err := s.mail.PublishEmail(ctx, queue.EmailJob{To: to, Subject: subject, HTMLBody: html}); err != nil {
		s.log.Warn("enqueue mail failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}
