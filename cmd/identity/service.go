package identity

import (
	"context"
	"fmt"
	"time"

	"tasklist/cmd/security/password"
	"tasklist/cmd/security/token"
)

// Issued is a freshly signed access token plus its lifetime metadata.
type Issued struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64 // seconds
	ExpiresAt   time.Time
}

// RegisterInput describes a registration request with a plain password.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// Service implements the account lifecycle: registration, login, profile
// updates, password changes, and token refresh.
type Service struct {
	store     Store
	passwords password.Config
	tokens    *token.Manager

	// dummyHash is verified against when login hits an unknown email, so the
	// unknown-email and wrong-password paths cost roughly the same.
	dummyHash string
}

// NewService wires the account service. The dummy hash is precomputed here
// so construction fails fast on broken Argon2id parameters.
func NewService(store Store, passwords password.Config, tokens *token.Manager) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("identity: nil store")
	}
	if tokens == nil {
		return nil, fmt.Errorf("identity: nil token manager")
	}

	dummy, err := passwords.Hash("Decoy-Password-1")
	if err != nil {
		return nil, fmt.Errorf("identity: precompute dummy hash: %w", err)
	}

	return &Service{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

// Register validates input, hashes the password, and creates the account.
// Duplicate emails surface as ConflictError{Field: "email"}; the storage
// unique index is the final arbiter under concurrency.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	const op = "identity.Register"

	if err := ValidateFullName(op, in.FullName); err != nil {
		return User{}, err
	}
	if err := ValidateEmail(op, in.Email); err != nil {
		return User{}, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if password.IsPolicyViolation(err) {
			return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
		}
		return User{}, err
	}

	return s.store.CreateUser(ctx, CreateUserInput{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
	})
}

// Login verifies credentials and issues an access token.
//
// Unknown email and wrong password both return ErrInvalidCredentials; a
// deactivated account with a correct password returns ErrAccountDisabled.
// The active check runs only after the password verifies, so disabled
// accounts cannot be discovered by guessing.
func (s *Service) Login(ctx context.Context, email, plainPassword string, now time.Time) (User, Issued, error) {
	const op = "identity.Login"

	if now.IsZero() {
		now = time.Now().UTC()
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			// Burn a verification anyway to keep timing comparable.
			s.passwords.Verify(s.dummyHash, plainPassword)
			return User{}, Issued{}, invalidCredentials(op)
		}
		return User{}, Issued{}, err
	}

	if !s.passwords.Verify(u.PasswordHash, plainPassword) {
		return User{}, Issued{}, invalidCredentials(op)
	}
	if !u.IsActive {
		return User{}, Issued{}, OpError{Op: op, Kind: ErrAccountDisabled}
	}

	issued, err := s.issue(u, now)
	if err != nil {
		return User{}, Issued{}, err
	}
	return u, issued, nil
}

// UpdateProfile applies a partial profile update. Set fields are validated;
// nil fields are untouched. An all-nil patch is a no-op returning the
// current profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch UserPatch) (User, error) {
	const op = "identity.UpdateProfile"

	if patch.FullName != nil {
		if err := ValidateFullName(op, *patch.FullName); err != nil {
			return User{}, err
		}
	}
	if patch.Email != nil {
		if err := ValidateEmail(op, *patch.Email); err != nil {
			return User{}, err
		}
	}

	return s.store.UpdateUser(ctx, userID, patch, time.Now().UTC())
}

// ChangePassword verifies the current password and replaces the credential.
// The new password goes through the same complexity policy as registration.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	const op = "identity.ChangePassword"

	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.passwords.Verify(u.PasswordHash, currentPassword) {
		return OpError{Op: op, Kind: ErrCurrentPasswordIncorrect}
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		if password.IsPolicyViolation(err) {
			return OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
		}
		return err
	}

	return s.store.UpdatePasswordHash(ctx, userID, hash, time.Now().UTC())
}

// Refresh issues a fresh token for an already-authenticated user.
// The old token stays valid until its own expiry; tokens are stateless.
func (s *Service) Refresh(ctx context.Context, u User, now time.Time) (Issued, error) {
	if err := ctx.Err(); err != nil {
		return Issued{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return s.issue(u, now)
}

func (s *Service) issue(u User, now time.Time) (Issued, error) {
	signed, exp, err := s.tokens.Issue(u.ID, u.Email, now)
	if err != nil {
		return Issued{}, err
	}
	return Issued{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL() / time.Second),
		ExpiresAt:   exp,
	}, nil
}
