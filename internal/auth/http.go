// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts the bearer token, verifies it, and adds the subject to context

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "bearer token required"
	}
	// the scheme is case-insensitive
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "bearer token required"
	}
	return token, ""
}

// failureMessage maps a verification error to the client-facing message.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "bearer token required"
	case errors.Is(err, ErrExpiredToken):
		return "token expired"
	case errors.Is(err, ErrMissingClaim):
		return "invalid token payload"
	default:
		return "invalid token"
	}
}

func writeUnauthorized(w http.ResponseWriter, message string, challenge bool) {
	if challenge {
		w.Header().Set("WWW-Authenticate", `Bearer realm="auth_required"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// HTTPAuthMiddleware creates an HTTP middleware that extracts and validates JWT tokens.
// On success the AuthContext is added to the request context for handlers to read
// with FromContext. Every failure is a 401.
func HTTPAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				writeUnauthorized(w, errMsg, true)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, failureMessage(err), false)
				return
			}

			authCtx := &AuthContext{
				UserID: claims.Subject,
				Email:  claims.Email,
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}
