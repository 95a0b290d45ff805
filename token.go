package shopsession

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// bearerExpiry inspects a bearer token for an embedded expiry claim without
// verifying the signature — verification is the backend's job; this exists
// only to skip a doomed network round-trip on a token that is already dead.
// Opaque (non-JWT) tokens report no expiry.
func bearerExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
