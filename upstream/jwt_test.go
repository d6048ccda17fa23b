package upstream_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/upstream"
)

const testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTVerifier(t *testing.T) {
	v, err := upstream.NewJWTVerifier(testJWTSecret, "authenticated")
	require.NoError(t, err)

	valid := jwt.MapClaims{
		"sub":   "u1",
		"email": "u1@example.com",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	t.Run("valid", func(t *testing.T) {
		id, err := v.Verify(signHS256(t, testJWTSecret, valid))
		require.NoError(t, err)
		require.Equal(t, "u1", id.Subject)
		require.Equal(t, "u1@example.com", id.Email)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signHS256(t, "another-secret-another-secret-another", valid))
		require.ErrorIs(t, err, upstream.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "u1", "aud": "authenticated", "exp": time.Now().Add(-time.Minute).Unix()}
		_, err := v.Verify(signHS256(t, testJWTSecret, claims))
		require.ErrorIs(t, err, upstream.ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "u1", "aud": "authenticated"}
		_, err := v.Verify(signHS256(t, testJWTSecret, claims))
		require.ErrorIs(t, err, upstream.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "u1", "aud": "anon", "exp": time.Now().Add(time.Hour).Unix()}
		_, err := v.Verify(signHS256(t, testJWTSecret, claims))
		require.ErrorIs(t, err, upstream.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-jwt")
		require.ErrorIs(t, err, upstream.ErrInvalidToken)
	})
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	_, err := upstream.NewJWTVerifier("", "")
	require.Error(t, err)
}
