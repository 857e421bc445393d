// ABOUTME: Unit tests for JWT token verification and generation
// ABOUTME: Tests valid, invalid, expired, wrong-audience, and claim-less tokens

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-jwt-signing")

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(testSecret, "")
	require.NoError(t, err)
	return v
}

func signClaims(t *testing.T, secret []byte, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	_, err := NewJWTVerifier(nil, "")
	assert.Error(t, err)
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("user-123", "amina@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "amina@example.com", claims.Email)
}

func TestJWTVerifier_VerifyIsIdempotent(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("user-123", "amina@example.com", time.Hour)
	require.NoError(t, err)

	first, err := verifier.Verify(token)
	require.NoError(t, err)
	second, err := verifier.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "empty token",
			token: "",
			want:  ErrMissingToken,
		},
		{
			name:  "garbage token",
			token: "not-a-jwt-token",
			want:  ErrInvalidToken,
		},
		{
			name:  "malformed JWT",
			token: "header.payload.signature",
			want:  ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func() string {
				other, _ := NewJWTVerifier([]byte("different-secret"), "")
				token, _ := other.Generate("user-123", "", time.Hour)
				return token
			}(),
			want: ErrInvalidToken,
		},
		{
			name: "wrong audience",
			token: signClaims(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "user-123", "aud": "anon", "exp": future,
			}),
			want: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: signClaims(t, testSecret, jwt.SigningMethodHS512, jwt.MapClaims{
				"sub": "user-123", "aud": DefaultAudience, "exp": future,
			}),
			want: ErrInvalidToken,
		},
		{
			name: "no expiry",
			token: signClaims(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "user-123", "aud": DefaultAudience,
			}),
			want: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if err == nil {
				t.Fatal("Verify() should have returned an error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)

	// Generate a token that expired 1 hour ago
	token, err := verifier.Generate("user-123", "", -time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTVerifier_RequiresExpiry(t *testing.T) {
	verifier := newTestVerifier(t)

	token := signClaims(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"aud": DefaultAudience,
	})

	_, err := verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	verifier := newTestVerifier(t)

	token := signClaims(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"aud":   DefaultAudience,
		"email": "nobody@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(token)
	if !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Verify() error = %v, want ErrMissingClaim", err)
	}
}

func TestJWTVerifier_EmailOptional(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("user-456", "", 5*time.Minute)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.Subject)
	assert.Empty(t, claims.Email)
}

func TestJWTVerifier_CustomAudience(t *testing.T) {
	verifier, err := NewJWTVerifier(testSecret, "service")
	require.NoError(t, err)

	token, err := verifier.Generate("svc-1", "", time.Minute)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", claims.Subject)

	// the default-audience verifier must reject it
	_, err = newTestVerifier(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
