package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims and removes duplicates preserving order",
			input:    []string{"  jane@example.com ", "jane@example.com", "JANE@example.com"},
			expected: []string{"jane@example.com", "JANE@example.com"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"", "  ", "+639171234567"},
			expected: []string{"+639171234567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already canonical", input: "BDO UNIBANK INC.", expected: "BDO UNIBANK INC."},
		{name: "lower case", input: "bdo unibank inc.", expected: "BDO UNIBANK INC."},
		{name: "collapses whitespace", input: "  BDO \t UNIBANK\n INC. ", expected: "BDO UNIBANK INC."},
		{name: "punctuation is significant", input: "BDO UNIBANK INC", expected: "BDO UNIBANK INC"},
		{name: "empty", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCompanyName(tt.input))
		})
	}
}

func TestNormalizeHolderID(t *testing.T) {
	assert.Equal(t, "201234", NormalizeHolderID("  201234 "))
	assert.Equal(t, "AB 12", NormalizeHolderID("AB   12"))
	assert.Equal(t, "ab 12", NormalizeHolderID("ab 12"), "ids keep their case")
}

func TestEqualFoldTrim(t *testing.T) {
	assert.True(t, EqualFoldTrim(" Jane@Example.com", "jane@example.com "))
	assert.False(t, EqualFoldTrim("jane@example.com", "john@example.com"))
	assert.False(t, EqualFoldTrim("", ""), "empty identifiers never match")
}
