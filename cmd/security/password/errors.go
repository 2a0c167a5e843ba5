package password

import "errors"

// Public, stable errors for callers. Each policy sentinel maps to a distinct
// user-facing complexity sub-reason, so callers never string-match.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrPasswordNoUpper  = errors.New("password missing uppercase letter")
	ErrPasswordNoDigit  = errors.New("password missing digit")
)

// IsPolicyViolation reports whether err is one of the policy sentinels.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordTooLong) ||
		errors.Is(err, ErrPasswordNoUpper) ||
		errors.Is(err, ErrPasswordNoDigit)
}
