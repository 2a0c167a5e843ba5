package identity

import (
	"strings"
	"unicode/utf8"

	emailaddress "github.com/mcnijman/go-emailaddress"
)

const maxFullNameLen = 255

// ValidateEmail checks that s is a syntactically valid email address.
func ValidateEmail(op, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if _, err := emailaddress.Parse(s); err != nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "invalid email address"}
	}
	return nil
}

// ValidateFullName checks that s is a usable display name.
func ValidateFullName(op, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "full name is required"}
	}
	if utf8.RuneCountInString(s) > maxFullNameLen {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "full name is too long"}
	}
	return nil
}
