package identity

import (
	"context"
	"strings"
	"time"

	"tasklist/cmd/security/token"
)

// Resolver turns a bearer token into the authenticated User.
//
// Every failure mode collapses to ErrInvalidCredentials: malformed header,
// invalid/expired token, and a token whose user no longer exists are all
// indistinguishable to the caller. is_active is NOT checked here; tokens
// issued before a deactivation remain usable until they expire.
type Resolver struct {
	store  Store
	tokens *token.Manager
}

// NewResolver wires the bearer-token resolver.
func NewResolver(store Store, tokens *token.Manager) *Resolver {
	return &Resolver{store: store, tokens: tokens}
}

// Resolve verifies the Authorization header value and loads the user.
// The value must be of the form "Bearer <token>" (scheme case-insensitive).
func (r *Resolver) Resolve(ctx context.Context, authorization string, now time.Time) (User, error) {
	const op = "identity.Resolve"

	if r == nil || r.store == nil || r.tokens == nil {
		return User{}, invalidCredentials(op)
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	raw, ok := bearerToken(authorization)
	if !ok {
		return User{}, invalidCredentials(op)
	}

	claims, err := r.tokens.Verify(raw, now)
	if err != nil {
		return User{}, invalidCredentials(op)
	}

	u, err := r.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if IsNotFound(err) {
			return User{}, invalidCredentials(op)
		}
		return User{}, err
	}
	return u, nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", false
	}
	return tok, true
}
