package password

import (
	"unicode"
	"unicode/utf8"
)

// Validate checks the account password policy. It does not mutate input.
//
// Checks run in a fixed order so the first violated rule is the one reported:
// length bounds, then uppercase, then digit.
func (c Config) Validate(password string) error {
	// Count characters (runes), not bytes, to be user-friendly.
	n := utf8.RuneCountInString(password)

	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}

	if c.Policy.RequireUppercase && !containsClass(password, unicode.IsUpper) {
		return ErrPasswordNoUpper
	}
	if c.Policy.RequireDigit && !containsClass(password, unicode.IsDigit) {
		return ErrPasswordNoDigit
	}

	return nil
}

func containsClass(s string, is func(rune) bool) bool {
	for _, r := range s {
		if is(r) {
			return true
		}
	}
	return false
}
