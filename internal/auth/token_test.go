package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenParser_RoundTrip(t *testing.T) {
	p := NewTokenParser("secret")
	token, err := p.Issue("user-1", "donor", time.Hour)
	require.NoError(t, err)

	claims, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "donor", claims.Role)
}

func TestTokenParser_Rejects(t *testing.T) {
	p := NewTokenParser("secret")

	expired, err := p.Issue("user-1", "donor", -time.Minute)
	require.NoError(t, err)
	_, err = p.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewTokenParser("other").Issue("user-1", "donor", time.Hour)
	require.NoError(t, err)
	_, err = p.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Parse(noSubject)
	assert.ErrorIs(t, err, ErrMissingSubject)

	_, err = NewTokenParser("").Parse(foreign)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
