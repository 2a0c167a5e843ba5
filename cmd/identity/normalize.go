package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Two registrations differing only in case or surrounding whitespace
// collapse to the same canonical address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
