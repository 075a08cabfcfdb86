package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Extract(c)
}

func TestExtractDefaults(t *testing.T) {
	params := paramsFor(t, "")

	assert.Equal(t, DefaultPage, params.Page)
	assert.Equal(t, DefaultLimit, params.Limit)
	assert.Equal(t, 0, params.Skip)
}

func TestExtractExplicitValues(t *testing.T) {
	params := paramsFor(t, "page=3&limit=10")

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, 20, params.Skip)
}

func TestExtractCapsLimit(t *testing.T) {
	params := paramsFor(t, "limit=5000")

	assert.Equal(t, MaxLimit, params.Limit)
}

func TestExtractRejectsInvalid(t *testing.T) {
	params := paramsFor(t, "page=-1&limit=abc")

	assert.Equal(t, DefaultPage, params.Page)
	assert.Equal(t, DefaultLimit, params.Limit)
}

func TestMetadataFrom(t *testing.T) {
	meta := MetadataFrom(45, Params{Page: 2, Limit: 20, Skip: 20})

	assert.Equal(t, int64(45), meta.TotalItems)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)
}

func TestMetadataFromEmpty(t *testing.T) {
	meta := MetadataFrom(0, Params{Page: 1, Limit: 20})

	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNextPage)
	assert.False(t, meta.HasPrevPage)
}
