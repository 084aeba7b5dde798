package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a bearer token failed verification or carries
// no usable subject.
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier verifies HMAC-signed bearer tokens and extracts the caller
// identity from their claims.
//
// Claim mapping:
//   - "sub" (string): the subject identifier, required
//   - "writer" (bool): grants the writer capability
//   - "admin" (bool): grants admin, which implies writer
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for tokens signed with the given
// shared secret (HS256).
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates a token string, returning the Identity
// encoded in its claims.
//
// Only HMAC signing methods are accepted; a token declaring any other
// algorithm fails verification regardless of its signature.
func (v *TokenVerifier) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	var caps []Capability
	if isAdmin, _ := claims["admin"].(bool); isAdmin {
		// Admin implies writer.
		caps = append(caps, CapabilityAdmin, CapabilityWriter)
	}
	if isWriter, _ := claims["writer"].(bool); isWriter {
		caps = append(caps, CapabilityWriter)
	}

	return New(subject, caps...), nil
}
