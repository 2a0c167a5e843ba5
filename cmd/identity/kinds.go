package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")

	// ErrInvalidCredentials covers unknown email, wrong password, and
	// invalid/expired tokens. The reasons are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrAccountDisabled is returned at login for deactivated accounts.
	ErrAccountDisabled = errors.New("account_disabled")

	// ErrCurrentPasswordIncorrect is returned by password changes when the
	// supplied current password does not verify.
	ErrCurrentPasswordIncorrect = errors.New("current_password_incorrect")
)
