package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired inspects the stored token's exp claim without verifying the
// signature, so bootstrap can skip a whoami round-trip that is certain to
// fail. Tokens that don't parse as JWTs stay opaque and report not-expired;
// the server remains the authority either way.
func tokenExpired(token string, now time.Time) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
