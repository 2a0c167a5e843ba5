// Package token issues and verifies the stateless access tokens used to
// authenticate API requests.
//
// Tokens are JWTs signed with HMAC-SHA256 using a process-wide secret key.
// They carry the owning user's id and email plus an absolute expiry; nothing
// is persisted server-side. Verification collapses every failure mode
// (malformed, expired, bad signature, wrong algorithm, missing claims) into
// a single ErrInvalidToken so callers cannot probe which check failed.
package token
