package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "irdesk/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var reviewerID = "iro-7"
var expiresIn = time.Hour

func Test_GenerateReviewerToken(t *testing.T) {
	token, err := jwtService.GenerateReviewerToken(reviewerID, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, reviewerID, claims.ReviewerID)
	assert.Equal(t, RoleIRO, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateReviewerToken_RequiresReviewer(t *testing.T) {
	_, err := jwtService.GenerateReviewerToken("", expiresIn)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateReviewerToken(reviewerID, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", err.Error())
}

func Test_ValidateToken_WrongKeyOrAudience(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer", "test-audience")
	token, err := other.GenerateReviewerToken(reviewerID, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	elsewhere := NewJWTService("test-signing-key", "test-issuer", "another-audience")
	token, err = elsewhere.GenerateReviewerToken(reviewerID, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RequiresReviewerRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ReviewerClaims{
		ReviewerID: reviewerID,
		Role:       "investor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func Test_Validator(t *testing.T) {
	token, err := jwtService.GenerateReviewerToken(reviewerID, expiresIn)
	require.NoError(t, err)

	claims, err := NewValidator(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, reviewerID, claims.ReviewerID)
	assert.NotEmpty(t, claims.JTI)
	assert.False(t, claims.ExpiresAt.IsZero())
}

func Test_InMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	list := NewInMemoryRevocationList()
	list.now = func() time.Time { return now }

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err := list.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(time.Minute)
	revoked, err = list.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entries lapse with the token")
}
