package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treenetra/treenetra/internal/apperr"
)

func TestCreateUserValidation(t *testing.T) {
	h := NewUserHandler(nil, nil, 4) // validation fails before the repos are touched

	c, _ := ctxFor(http.MethodPost, "/api/v1/users",
		`{"email":"bad","password":"short","username":"ab","full_name":"","role":"superuser"}`)
	err := h.Create(c)
	require.Error(t, err)
	require.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	fields := map[string]bool{}
	for _, f := range ae.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["username"])
	assert.True(t, fields["full_name"])
	assert.True(t, fields["role"])
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	h := NewUserHandler(nil, nil, 4)

	c, _ := ctxFor(http.MethodDelete, "/api/v1/users/7", "")
	c.Set("user_id", uint64(7))
	c.SetParamNames("id")
	c.SetParamValues("7")

	err := h.Delete(c)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}
