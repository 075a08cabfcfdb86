package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentifier(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got, err := NormalizeIdentifier("  My-Course1 ")
		assert.NoError(t, err)
		assert.Equal(t, "my-course1", got)
	})

	t.Run("rejects short values", func(t *testing.T) {
		_, err := NormalizeIdentifier("ab")
		assert.Error(t, err)
	})

	t.Run("rejects invalid characters", func(t *testing.T) {
		_, err := NormalizeIdentifier("has space")
		assert.Error(t, err)
	})
}

func TestNormalizeURL(t *testing.T) {
	t.Run("accepts https", func(t *testing.T) {
		got, err := NormalizeURL(" https://cdn.example.com/v/intro.mp4 ")
		assert.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/v/intro.mp4", got)
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		_, err := NormalizeURL("ftp://example.com/file")
		assert.Error(t, err)
	})

	t.Run("rejects bare words", func(t *testing.T) {
		_, err := NormalizeURL("not a url")
		assert.Error(t, err)
	})
}
