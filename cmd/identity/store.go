package identity

import (
	"context"
	"time"
)

// CreateUserInput describes a user row to persist. The password has already
// been hashed by the caller; stores never see plain passwords.
type CreateUserInput struct {
	FullName     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the user persistence boundary.
//
// Uniqueness contract:
//   - CreateUser and UpdateUser enforce email uniqueness on the normalized
//     form at the storage layer, so concurrent check-then-insert races
//     collapse to a single winner. Losers get ConflictError{Field: "email"}.
//
// Lookup contract:
//   - GetUserByID / GetUserByEmail return ErrNotFound (or NotFoundError)
//     for missing rows. GetUserByEmail matches on the normalized email.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// UpdateUser applies a partial profile update and returns the updated row.
	// An empty patch returns the current row unchanged.
	UpdateUser(ctx context.Context, id string, patch UserPatch, now time.Time) (User, error)

	// UpdatePasswordHash replaces the stored credential for a user.
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string, now time.Time) error
}
