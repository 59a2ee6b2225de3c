package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/service"
)

// AuthHandler exposes the session endpoints on top of AuthService.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	Organization string `json:"organization"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Password string `json:"password"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register creates an account and returns the identity with a fresh token
// pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)

	var errs fieldErrs
	if !validEmail(req.Email) {
		errs.add("email", "a valid email is required")
	}
	if len(req.Password) < 8 {
		errs.add("password", "must be at least 8 characters")
	}
	if req.Username == "" {
		errs.add("username", "required")
	}
	if req.FullName == "" {
		errs.add("full_name", "required")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Username:     req.Username,
		FullName:     req.FullName,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Organization: strings.TrimSpace(req.Organization),
	}, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(res))
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.ValidationFailed, "email and password are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(res))
}

// Refresh exchanges a refresh token for a new access token without
// rotating the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return apperr.New(apperr.ValidationFailed, "refresh_token is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(echo.Map{
		"access_token":   access.Token,
		"access_expires": access.Exp,
	}))
}

// Rotate revokes the presented refresh token and returns a full new pair.
func (h *AuthHandler) Rotate(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return apperr.New(apperr.ValidationFailed, "refresh_token is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Auth.Rotate(ctx, strings.TrimSpace(req.RefreshToken), c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(res))
}

// Logout revokes every refresh token of the current user (protected).
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, uid); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("logged out"))
}

// Me returns the current identity (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(u))
}

// ForgotPassword starts the reset flow.  The response is the same whether
// or not the email exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return apperr.New(apperr.ValidationFailed, "a valid email is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Auth.ForgotPassword(ctx, email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("if the email exists, a reset link has been sent"))
}

// ResetPassword redeems the emailed reset token carried in the path.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return apperr.New(apperr.ValidationFailed, "token is required")
	}
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	if len(req.Password) < 8 {
		return apperr.Validation(apperr.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("password has been reset"))
}

// ChangePassword updates the current user's password (protected).
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	var errs fieldErrs
	if req.CurrentPassword == "" {
		errs.add("current_password", "required")
	}
	if len(req.NewPassword) < 8 {
		errs.add("new_password", "must be at least 8 characters")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("password changed"))
}

// VerifyEmail redeems the emailed verification token.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return apperr.New(apperr.ValidationFailed, "token is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Auth.VerifyEmail(ctx, token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("email verified"))
}
