// Package auth provides request authentication for easyshop-api.
//
// # Tokens
//
// Users sign in with the external identity provider, which issues HS256 JWTs
// signed with a shared secret. The API never issues production tokens itself;
// it only verifies them:
//
//	verifier, err := auth.NewJWTVerifier(secret, "authenticated")
//	claims, err := verifier.Verify(token)
//
// Verification checks the signature, the algorithm (HS256 only), the audience,
// and the expiry. Failures are reported as ErrMissingToken, ErrExpiredToken or
// ErrInvalidToken. A verified token without a "sub" claim is ErrMissingClaim.
//
// # HTTP Middleware
//
// HTTPAuthMiddleware reads "Authorization: Bearer <token>", verifies it, and
// attaches an AuthContext to the request context:
//
//	mux.Handle("GET /api/stores", auth.HTTPAuthMiddleware(verifier, logger)(h))
//
//	func h(w http.ResponseWriter, r *http.Request) {
//		user := auth.MustFromContext(r.Context()).UserID
//	}
//
// The subject (UserID) is the ownership key for stores, and through them for
// products and pages.
package auth
