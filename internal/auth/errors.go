package auth

import "errors"

// Sentinel errors for the authorization layer. Unauthorized means no valid
// session at all; Forbidden means a valid session with insufficient role or
// direction scope. The two must never be conflated.
var (
	ErrUnauthorized = errors.New("unauthorized: missing or expired session")
	ErrForbidden    = errors.New("forbidden: role not allowed for this operation")
	ErrBadLogin     = errors.New("invalid email or password")
)
