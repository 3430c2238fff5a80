package auth

import "errors"

// Sentinel errors for authentication.
var (
	// ErrTokenInvalid indicates the token failed signature or claim validation.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("auth: invalid role")

	// ErrNoSecret indicates token signing was attempted without a secret.
	ErrNoSecret = errors.New("auth: signing secret is empty")
)
