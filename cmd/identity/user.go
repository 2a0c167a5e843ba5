package identity

import "time"

// User is the canonical security principal and resource owner.
type User struct {
	ID       string
	FullName string

	// Email is stored as provided; EmailNorm is the canonical form used for
	// uniqueness and lookup.
	Email     string
	EmailNorm string

	// PasswordHash is a PHC-encoded Argon2id hash. Never expose it over the API.
	PasswordHash string

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch is a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	FullName *string
	Email    *string
}

// IsEmpty reports whether the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil
}
