package token

import "errors"

var (
	// ErrInvalidToken is returned for any token that fails verification.
	// Malformed, expired, tampered, and wrong-algorithm tokens are
	// deliberately indistinguishable.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid or missing signing configuration.
	ErrConfig = errors.New("invalid token config")
)
