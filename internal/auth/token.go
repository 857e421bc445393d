// ABOUTME: JWT verification for tokens issued by the external identity provider
// ABOUTME: HS256 with a shared secret and a fixed audience; extracts subject and email

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// DefaultAudience is the audience claim the identity provider stamps on user sessions.
const DefaultAudience = "authenticated"

// Claims is the verified identity carried by a token.
type Claims struct {
	Subject string
	Email   string
	Raw     jwt.MapClaims
}

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret   []byte
	audience string
}

// NewJWTVerifier creates a new JWT verifier with the given secret and expected audience.
// An empty audience falls back to DefaultAudience.
func NewJWTVerifier(secret []byte, audience string) (*JWTVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if audience == "" {
		audience = DefaultAudience
	}
	return &JWTVerifier{secret: secret, audience: audience}, nil
}

// Verify validates the token and extracts the subject and email claims.
// Every call verifies from scratch; nothing is cached.
func (v *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return extractClaims(mapClaims)
}

// extractClaims pulls the subject and email out of a verified payload.
func extractClaims(mapClaims jwt.MapClaims) (*Claims, error) {
	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	email, _ := mapClaims["email"].(string)

	return &Claims{
		Subject: sub,
		Email:   email,
		Raw:     mapClaims,
	}, nil
}

// Generate creates a token shaped like the identity provider's session tokens.
// Used by tests and the development token command.
func (v *JWTVerifier) Generate(subject, email string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"aud":  v.audience,
		"role": v.audience,
		"iat":  now.Unix(),
		"exp":  now.Add(expiresIn).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
