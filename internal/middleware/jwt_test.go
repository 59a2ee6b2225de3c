package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/utils"
)

const testSecret = "middleware-test-secret"

type stubUserStore struct {
	users map[uint64]*model.User
}

func (s *stubUserStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return u, nil
}

func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trees", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return c, h(c)
}

func TestAuthenticateMissingBearer(t *testing.T) {
	mw := Authenticate(testSecret, &stubUserStore{})

	_, err := run(t, mw, "")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	_, err = run(t, mw, "Basic abc123")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestAuthenticateInvalidToken(t *testing.T) {
	mw := Authenticate(testSecret, &stubUserStore{})

	_, err := run(t, mw, "Bearer garbage")
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestAuthenticateExpiredToken(t *testing.T) {
	u := &model.User{ID: 1, Email: "a@b.org", Role: model.RoleViewer, IsActive: true}
	tok, err := utils.NewAccessToken(testSecret, u, -1, time.Now())
	require.NoError(t, err)

	mw := Authenticate(testSecret, &stubUserStore{users: map[uint64]*model.User{1: u}})
	_, err = run(t, mw, "Bearer "+tok.Token)
	assert.Equal(t, apperr.ExpiredToken, apperr.KindOf(err))
}

func TestAuthenticateDeletedAndInactiveSubjects(t *testing.T) {
	u := &model.User{ID: 1, Email: "a@b.org", Role: model.RoleViewer, IsActive: true}
	tok, err := utils.NewAccessToken(testSecret, u, 15, time.Now())
	require.NoError(t, err)

	// Subject no longer exists.
	mw := Authenticate(testSecret, &stubUserStore{users: map[uint64]*model.User{}})
	_, err = run(t, mw, "Bearer "+tok.Token)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	// Subject exists but was deactivated after the token was minted.
	u.IsActive = false
	mw = Authenticate(testSecret, &stubUserStore{users: map[uint64]*model.User{1: u}})
	_, err = run(t, mw, "Bearer "+tok.Token)
	assert.Equal(t, apperr.AccountInactive, apperr.KindOf(err))
}

func TestAuthenticateSetsIdentityFromStore(t *testing.T) {
	u := &model.User{ID: 9, Email: "a@b.org", Role: model.RoleViewer, IsActive: true}
	tok, err := utils.NewAccessToken(testSecret, u, 15, time.Now())
	require.NoError(t, err)

	// Role promoted after issuance: the stored role must win.
	u.Role = model.RoleFieldOfficer
	mw := Authenticate(testSecret, &stubUserStore{users: map[uint64]*model.User{9: u}})

	c, err := run(t, mw, "Bearer "+tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), c.Get("user_id"))
	assert.Equal(t, model.RoleFieldOfficer, c.Get("role"))
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole(zap.NewNop(), model.RoleAdmin, model.RoleFieldOfficer)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	cases := []struct {
		role    string
		allowed bool
	}{
		{model.RoleAdmin, true},
		{model.RoleFieldOfficer, true},
		{model.RoleViewer, false},
		{"", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/trees", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if tc.role != "" {
			c.Set("role", tc.role)
		}
		err := h(c)
		if tc.allowed {
			assert.NoError(t, err, "role %q", tc.role)
		} else {
			assert.Equal(t, apperr.Forbidden, apperr.KindOf(err), "role %q", tc.role)
		}
	}
}
