package server

import (
	"net/http"
	"strings"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/internal/ratelimiter"
	"github.com/integrable/stardust/pkg/identity"
)

// authHandler is an http handler that receives the verified caller
// identity alongside the request.
type authHandler func(w http.ResponseWriter, r *http.Request, caller identity.Identity)

// authMiddleware verifies bearer tokens and injects the caller identity.
type authMiddleware struct {
	verifier *identity.TokenVerifier
}

func newAuthMiddleware(verifier *identity.TokenVerifier) *authMiddleware {
	return &authMiddleware{verifier: verifier}
}

// require rejects requests without a valid token.
//
// The token is taken from the Authorization header (Bearer scheme) or,
// as a fallback for clients that cannot set headers, from the "token"
// query parameter.
func (m *authMiddleware) require(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		caller, err := m.verifier.Verify(token)
		if err != nil {
			logger.Debug("token rejected: %v", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r, caller)
	})
}

// bearerToken extracts the raw token from a request.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return r.URL.Query().Get("token")
}

// rateLimit sheds requests exceeding the configured rate before they
// reach authentication or the storage layer.
func rateLimit(limiter *ratelimiter.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireWriter gates mutating routes behind the writer capability.
func requireWriter(next authHandler) authHandler {
	return func(w http.ResponseWriter, r *http.Request, caller identity.Identity) {
		if !caller.Has(identity.CapabilityWriter) {
			writeError(w, http.StatusForbidden, "writer capability required")
			return
		}
		next(w, r, caller)
	}
}
