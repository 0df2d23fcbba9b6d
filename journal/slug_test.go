package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Learned Go Routines", "learned-go-routines"},
		{"Testing 123", "testing-123"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"Special@#Characters!", "special-characters"},
		{"---Dashes---", "dashes"},
		{"  Padded Title  ", "padded-title"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Slugify(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	slug := Slugify("Some Fancy Title!")
	assert.Equal(t, slug, Slugify(slug))
}

func TestSlugify_SameSlugForDifferentTitles(t *testing.T) {
	// punctuation-only differences collapse to the same slug, which is what
	// makes the uniqueness check matter
	assert.Equal(t, Slugify("Learned Go"), Slugify("Learned Go!"))
}
