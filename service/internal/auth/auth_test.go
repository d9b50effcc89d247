package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	s, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	token, err := s.IssueToken(models.User{ID: id, Username: "  runner "})
	require.NoError(t, err)

	user, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "runner", user.Username)
}

func TestIssueTokenClaims(t *testing.T) {
	s, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := s.IssueToken(models.User{Username: "anon"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			t.Fatalf("want HS256, got %v", token.Method)
		}
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, issuer, claims["iss"])
	assert.Equal(t, "anon", claims["username"])
	sub, _ := claims["sub"].(string)
	_, err = uuid.Parse(sub)
	assert.NoError(t, err, "a missing id is minted")
}

func TestParseTokenRejects(t *testing.T) {
	s, _ := NewSigner("test-secret", time.Hour)
	other, _ := NewSigner("other-secret", time.Hour)

	token, err := other.IssueToken(models.User{Username: "x"})
	require.NoError(t, err)
	_, err = s.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = s.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": uuid.NewString(), "iss": issuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")
}

func TestParseTokenExpired(t *testing.T) {
	s, _ := NewSigner("test-secret", time.Minute)
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }
	token, err := s.IssueToken(models.User{Username: "late"})
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = s.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerValidation(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	s, err := NewSigner("k", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.ttl)

	_, err = s.IssueToken(models.User{Username: "   "})
	assert.Error(t, err)
}
