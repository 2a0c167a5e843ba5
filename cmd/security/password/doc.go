// Package password provides password hashing and verification for tasklist.
//
// It implements Argon2id hashing using a PHC-like encoded string format and includes:
// - Configurable Argon2id parameters (via environment variables)
// - Account password policy validation (length, uppercase, digit)
// - Strict hash decoding with anti-DoS bounds
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - A malformed or unsupported hash verifies as false, never as an error, so
//   hash-format failures cannot become a user-visible oracle.
package password
