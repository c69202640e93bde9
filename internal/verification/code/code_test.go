package code

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		c, err := Generate()
		require.NoError(t, err)
		assert.True(t, IsWellFormed(c), "code %q must be 6 digits", c)
		seen[c] = struct{}{}
	}
	// 200 draws from a million values collide rarely; a constant generator would not pass.
	assert.Greater(t, len(seen), 150)
}

func TestIsWellFormed(t *testing.T) {
	assert.True(t, IsWellFormed("000000"))
	assert.True(t, IsWellFormed("999999"))
	assert.False(t, IsWellFormed("12345"))
	assert.False(t, IsWellFormed("12345a"))
	assert.False(t, IsWellFormed(" 123456"))
}

func TestRender(t *testing.T) {
	expires := time.Date(2025, 3, 8, 9, 30, 0, 0, time.UTC)

	t.Run("email includes code, expiry and login link", func(t *testing.T) {
		r := Render(RenderInput{
			FullName:  "Juan Dela Cruz",
			Code:      "042917",
			ExpiresAt: expires,
			LoginLink: "https://ir.example.com/login",
		})
		assert.NotEmpty(t, r.Subject)
		assert.Contains(t, r.Body, "Dear Juan Dela Cruz")
		assert.Contains(t, r.Body, "042917")
		assert.Contains(t, r.Body, "March 8, 2025 09:30 UTC")
		assert.Contains(t, r.Body, "https://ir.example.com/login")
	})

	t.Run("sms is a single line without subject", func(t *testing.T) {
		r := Render(RenderInput{Code: "042917", ExpiresAt: expires, SMS: true})
		assert.Empty(t, r.Subject)
		assert.NotContains(t, r.Body, "\n")
		assert.Contains(t, r.Body, "042917")
	})

	t.Run("missing name falls back to a greeting", func(t *testing.T) {
		r := Render(RenderInput{Code: "111111", ExpiresAt: expires})
		assert.Contains(t, r.Body, "Dear Investor")
	})
}
