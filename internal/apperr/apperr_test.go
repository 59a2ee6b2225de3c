package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(New(NotFound, "gone")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, Internal, KindOf(nil))

	// Kind survives wrapping in both directions.
	wrapped := fmt.Errorf("outer: %w", New(Conflict, "duplicate"))
	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.Equal(t, Conflict, KindOf(Wrap(errors.New("cause"), Conflict, "duplicate")))
}

func TestIsKind(t *testing.T) {
	err := New(AccountLocked, "locked")
	assert.True(t, IsKind(err, AccountLocked))
	assert.False(t, IsKind(err, InvalidCredentials))
	assert.False(t, IsKind(errors.New("plain"), Internal), "plain errors carry no kind at all")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row scan failed")
	err := Wrap(cause, Internal, "loading user")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading user")
	assert.Contains(t, err.Error(), "row scan failed")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Conflict:              http.StatusConflict,
		InvalidCredentials:    http.StatusUnauthorized,
		AccountLocked:         http.StatusLocked,
		AccountInactive:       http.StatusUnauthorized,
		InvalidToken:          http.StatusUnauthorized,
		ExpiredToken:          http.StatusUnauthorized,
		InvalidOrExpiredToken: http.StatusBadRequest,
		NotFound:              http.StatusNotFound,
		Forbidden:             http.StatusForbidden,
		Unauthenticated:       http.StatusUnauthorized,
		ValidationFailed:      http.StatusBadRequest,
		Internal:              http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus())
	}
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation(
		FieldError{Field: "email", Message: "required"},
		FieldError{Field: "password", Message: "too short"},
	)
	assert.Equal(t, ValidationFailed, err.Kind)
	assert.Len(t, err.Fields, 2)
	assert.Equal(t, "email", err.Fields[0].Field)
}
