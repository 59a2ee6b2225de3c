package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treenetra/treenetra/internal/apperr"
)

func TestMergeTags(t *testing.T) {
	got := mergeTags([]string{"heritage", "roadside"}, []string{"roadside", " flowering ", "", "heritage"})
	assert.Equal(t, []string{"heritage", "roadside", "flowering"}, got)

	// Nothing to add leaves the set alone.
	assert.Equal(t, []string{"heritage"}, mergeTags([]string{"heritage"}, nil))

	assert.Empty(t, mergeTags(nil, []string{"  ", ""}))
}

func TestAddTagsRequiresTags(t *testing.T) {
	h := NewTreeHandler(nil, nil)

	c, _ := ctxFor(http.MethodPost, "/api/v1/trees/1/tags", `{"tags":[]}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.AddTags(c)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestRemoveTagRejectsBlank(t *testing.T) {
	h := NewTreeHandler(nil, nil)

	c, _ := ctxFor(http.MethodDelete, "/api/v1/trees/1/tags/%20", "")
	c.SetParamNames("id", "tag")
	c.SetParamValues("1", "  ")

	err := h.RemoveTag(c)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}
