package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryStore is a dev-only fallback when DB is not configured.
// It mirrors the PostgresStore contract, including the single-winner
// guarantee for concurrent registrations of the same email (the whole
// insert runs under one mutex).
type InMemoryStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byEmail map[string]string // email_norm -> user id
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// CreateUser inserts a new user, enforcing email uniqueness.
func (s *InMemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if fullName == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "full name is required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	norm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[norm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		EmailNorm:    norm,
		PasswordHash: in.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[u.ID] = u
	s.byEmail[norm] = u.ID

	return u, nil
}

// GetUserByID fetches a user by id. Returns ErrNotFound when missing.
func (s *InMemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

// GetUserByEmail fetches a user by normalized email. Returns ErrNotFound when missing.
func (s *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	norm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[norm]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return s.byID[id], nil
}

// UpdateUser applies a partial profile update and returns the updated row.
func (s *InMemoryStore) UpdateUser(ctx context.Context, id string, patch UserPatch, now time.Time) (User, error) {
	const op = "identity.UpdateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if patch.IsEmpty() {
		return u, nil
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		norm := NormalizeEmail(email)
		if other, taken := s.byEmail[norm]; taken && other != u.ID {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		delete(s.byEmail, u.EmailNorm)
		u.Email = email
		u.EmailNorm = norm
		s.byEmail[norm] = u.ID
	}
	if patch.FullName != nil {
		u.FullName = strings.TrimSpace(*patch.FullName)
	}
	u.UpdatedAt = now

	s.byID[u.ID] = u
	return u, nil
}

// SetActive flips the active flag for a user. Dev/test helper; the HTTP API
// has no deactivation surface.
func (s *InMemoryStore) SetActive(id string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false
	}
	u.IsActive = active
	s.byID[id] = u
	return true
}

// UpdatePasswordHash replaces the stored credential for a user.
func (s *InMemoryStore) UpdatePasswordHash(ctx context.Context, id string, passwordHash string, now time.Time) error {
	const op = "identity.UpdatePasswordHash"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = now
	s.byID[u.ID] = u
	return nil
}
