package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		answer   string
		want     float64
	}{
		{"exact match", "Paris", "Paris", 100},
		{"case insensitive", "PARIS", "paris", 100},
		{"leading and trailing whitespace", "  Paris \t", "Paris", 100},
		{"unicode case folding", "straße", "STRASSE", 0}, // EqualFold is simple folding, not full
		{"wrong answer", "London", "Paris", 0},
		{"empty selection", "", "Paris", 0},
		{"both empty", "", "", 100},
		{"substring is not a match", "Par", "Paris", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.selected, tt.answer))
		})
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Run("trims and keeps order", func(t *testing.T) {
		got, err := normalizeOptions([]string{" A ", "B", " C"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, []string(got))
	})

	t.Run("drops blank entries", func(t *testing.T) {
		got, err := normalizeOptions([]string{"A", "  ", "B"})
		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("rejects fewer than two options", func(t *testing.T) {
		_, err := normalizeOptions([]string{"only one"})
		assert.Error(t, err)
	})
}

func TestOptionListed(t *testing.T) {
	options, err := normalizeOptions([]string{"Alpha", "Beta"})
	assert.NoError(t, err)

	assert.True(t, optionListed(options, "alpha"))
	assert.True(t, optionListed(options, " Beta "))
	assert.False(t, optionListed(options, "Gamma"))
}

func TestSanitizedHidesAnswer(t *testing.T) {
	test := Test{Question: "Q?", Answer: "secret"}

	sanitized := test.Sanitized()

	assert.Empty(t, sanitized.Answer)
	assert.Equal(t, "Q?", sanitized.Question)
	assert.Equal(t, "secret", test.Answer, "original must not be mutated")
}
