package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/repository"
	"github.com/treenetra/treenetra/internal/utils"
)

// UserHandler exposes account administration and self-service profile
// updates.  Accounts are never hard-deleted: deactivation preserves the
// created_by/inspected_by references on trees and inspections.
type UserHandler struct {
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
	BcryptCost int
}

func NewUserHandler(u *repository.UserRepo, t *repository.TokenRepo, bcryptCost int) *UserHandler {
	return &UserHandler{Users: u, Tokens: t, BcryptCost: bcryptCost}
}

// List returns accounts filtered by role and active state (admin).
func (h *UserHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	role := strings.TrimSpace(c.QueryParam("role"))
	if role != "" && !model.ValidRole(role) {
		return apperr.New(apperr.ValidationFailed, "invalid role filter")
	}
	var active *bool
	switch strings.TrimSpace(c.QueryParam("active")) {
	case "true":
		t := true
		active = &t
	case "false":
		f := false
		active = &f
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, role, active, page, limit)
	if err != nil {
		return err
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return c.JSON(http.StatusOK, okList(out, newMeta(page, limit, total)))
}

// Get returns one account (admin).
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(u.Public()))
}

type createUserReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

// Create provisions an account with an explicit role (admin).  Unlike
// self-registration no verification mail goes out; the admin vouches for
// the address.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
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
	if len(req.Username) < 3 {
		errs.add("username", "must be at least 3 characters")
	}
	if req.FullName == "" {
		errs.add("full_name", "required")
	}
	if !model.ValidRole(req.Role) {
		errs.add("role", "must be admin, field_officer or viewer")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u := model.User{
		Email:           req.Email,
		Username:        req.Username,
		PasswordHash:    hash,
		FullName:        req.FullName,
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		Organization:    strings.TrimSpace(req.Organization),
		Role:            req.Role,
		IsActive:        true,
		IsEmailVerified: true,
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(u.Public()))
}

type profileReq struct {
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	Organization string `json:"organization"`
}

// UpdateProfile lets the current user edit their own profile fields.
// Email, username and role are not editable here.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return apperr.New(apperr.ValidationFailed, "full_name is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, uid, req.FullName, strings.TrimSpace(req.PhoneNumber), strings.TrimSpace(req.Organization)); err != nil {
		return err
	}
	u, err := h.Users.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(u.Public()))
}

// Update edits another account's profile fields (admin).  Email, username,
// password, role and active state all have dedicated flows and are not
// touched here.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return apperr.New(apperr.ValidationFailed, "full_name is required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := h.Users.UpdateProfile(ctx, id, req.FullName, strings.TrimSpace(req.PhoneNumber), strings.TrimSpace(req.Organization)); err != nil {
		return err
	}
	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(u.Public()))
}

// Delete retires an account (admin).  This is a soft delete: the row stays
// so created_by/inspected_by references keep resolving, but the account is
// deactivated and every refresh token revoked.
func (h *UserHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if id == uid {
		return apperr.New(apperr.Forbidden, "cannot delete your own account")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := h.Users.UpdateStatus(ctx, id, false); err != nil {
		return err
	}
	if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMsg("user deleted"))
}

// UpdateRole changes an account's role (admin).  Admins cannot demote
// themselves; that guarantees at least one admin remains reachable.
func (h *UserHandler) UpdateRole(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid request body")
	}
	req.Role = strings.TrimSpace(req.Role)
	if !model.ValidRole(req.Role) {
		return apperr.New(apperr.ValidationFailed, "role must be admin, field_officer or viewer")
	}
	if id == uid && req.Role != model.RoleAdmin {
		return apperr.New(apperr.Forbidden, "cannot change your own role")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
		return err
	}
	u.Role = req.Role
	return c.JSON(http.StatusOK, ok(u.Public()))
}

// SetStatus activates or deactivates an account (admin).  Deactivation also
// revokes every refresh token so existing sessions die with the account.
func (h *UserHandler) SetStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return apperr.New(apperr.ValidationFailed, "active is required")
	}
	if id == uid && !*req.Active {
		return apperr.New(apperr.Forbidden, "cannot deactivate your own account")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := h.Users.UpdateStatus(ctx, id, *req.Active); err != nil {
		return err
	}
	if !*req.Active {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return err
		}
	}
	msg := "account activated"
	if !*req.Active {
		msg = "account deactivated"
	}
	return c.JSON(http.StatusOK, okMsg(msg))
}
