package auth

import "errors"

// Expected outcomes of the auth flows. Transport code maps them to status
// codes; anything else reaching a handler is an internal failure.
var (
	ErrInvalidFormat      = errors.New("invalid phone number or mpin format")
	ErrAlreadyExists      = errors.New("user already exists")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrInvalidToken     = errors.New("token is invalid")
	ErrRevoked          = errors.New("token has been revoked")
	ErrUnauthorized     = errors.New("unauthorized")
)

// IsTokenError reports whether err is one of the token failures that should
// be answered with 401.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrRevoked) ||
		errors.Is(err, ErrUnauthorized)
}
