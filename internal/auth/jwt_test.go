package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	tok, err := tm.New("ada@example.com")
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Username)
	require.NotNil(t, c.IssuedAt)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, SessionTTL, c.ExpiresAt.Sub(c.IssuedAt.Time))
	assert.Empty(t, c.Subject)
	assert.Empty(t, c.Issuer)
}

func TestTokenMaker_Rejects(t *testing.T) {
	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	now := time.Now()
	valid := func() Claims {
		return Claims{
			Username: "ada@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	expired := valid()
	expired.IssuedAt = jwt.NewNumericDate(now.Add(-2 * time.Hour))
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

	noExp := valid()
	noExp.ExpiresAt = nil

	noUser := valid()
	noUser.Username = ""

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), valid())},
		{name: "other hmac alg", token: sign(jwt.SigningMethodHS512, []byte(testSecret), valid())},
		{name: "expired", token: sign(jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{name: "no expiry", token: sign(jwt.SigningMethodHS256, []byte(testSecret), noExp)},
		{name: "no username", token: sign(jwt.SigningMethodHS256, []byte(testSecret), noUser)},
	}

	tm := NewTokenMaker(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Parse(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
