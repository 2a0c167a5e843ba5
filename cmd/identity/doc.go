// Package identity implements the user account and authentication core.
//
// It owns the canonical User record, credential verification, access-token
// issuance, and the bearer-token resolver used by HTTP handlers. Persistence
// is behind the Store interface with PostgreSQL and in-memory implementations.
//
// This package is intentionally dependency-light and security-first.
package identity
