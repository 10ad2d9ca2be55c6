// Package auth holds the JWT signing key shared by token generation and
// verification.
package auth

import "os"

// JwtKey signs player identity tokens. Set JWT_SECRET in production; the
// fallback exists only for local development.
var JwtKey = []byte(jwtSecret())

func jwtSecret() string {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return s
	}
	return "dev-only-secret"
}
