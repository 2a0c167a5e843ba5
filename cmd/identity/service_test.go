package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasklist/cmd/security/password"
	"tasklist/cmd/security/token"
)

// Low-cost Argon2id params keep the suite fast; policy stays at defaults.
func testPasswords() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	return cfg
}

func testTokens(t *testing.T) *token.Manager {
	t.Helper()

	m, err := token.NewManager(token.Config{
		SecretKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:    "tasklist-test",
		AccessTTL: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("token.NewManager error: %v", err)
	}
	return m
}

func newTestService(t *testing.T) (*Service, *InMemoryStore) {
	t.Helper()

	store := NewInMemoryStore()
	svc, err := NewService(store, testPasswords(), testTokens(t))
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc, store
}

func TestRegisterLogin_Roundtrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice Example",
		Email:    "Alice@Example.com",
		Password: "Correct1Horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected non-empty user id")
	}
	if u.Email != "Alice@Example.com" {
		t.Fatalf("email stored as %q, want original casing", u.Email)
	}
	if u.EmailNorm != "alice@example.com" {
		t.Fatalf("email_norm = %q", u.EmailNorm)
	}
	if !u.IsActive {
		t.Fatalf("new user should be active")
	}
	if u.PasswordHash == "" || u.PasswordHash == "Correct1Horse" {
		t.Fatalf("password must be stored hashed")
	}

	// Login works with a differently-cased email.
	got, issued, err := svc.Login(ctx, "alice@example.COM", "Correct1Horse", time.Now())
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("login resolved user %q, want %q", got.ID, u.ID)
	}
	if issued.AccessToken == "" || issued.TokenType != "bearer" {
		t.Fatalf("issued = %+v", issued)
	}
	if issued.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("expires_in = %d", issued.ExpiresIn)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := RegisterInput{FullName: "Alice", Email: "alice@example.com", Password: "Correct1Horse"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	// Same address with different casing and whitespace must conflict.
	in.Email = "  ALICE@example.com "
	_, err := svc.Register(ctx, in)
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("conflict field = %+v", err)
	}
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"weak password", RegisterInput{FullName: "A", Email: "a@b.com", Password: "nouppercase1"}},
		{"short password", RegisterInput{FullName: "A", Email: "a@b.com", Password: "Ab1"}},
		{"bad email", RegisterInput{FullName: "A", Email: "not-an-email", Password: "Correct1Horse"}},
		{"empty name", RegisterInput{FullName: "  ", Email: "a@b.com", Password: "Correct1Horse"}},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.in); !IsInvalidInput(err) {
			t.Fatalf("%s: expected invalid input, got %v", tc.name, err)
		}
	}
}

func TestLogin_InvalidCredentialsAreUniform(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice", Email: "alice@example.com", Password: "Correct1Horse",
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// Unknown email and wrong password must be the same error kind.
	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "Correct1Horse", time.Now())
	_, _, errWrong := svc.Login(ctx, "alice@example.com", "Wrong1Password", time.Now())

	if !IsInvalidCredentials(errUnknown) {
		t.Fatalf("unknown email: got %v", errUnknown)
	}
	if !IsInvalidCredentials(errWrong) {
		t.Fatalf("wrong password: got %v", errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("error text differs: %q vs %q", errUnknown, errWrong)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice", Email: "alice@example.com", Password: "Correct1Horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !store.SetActive(u.ID, false) {
		t.Fatalf("SetActive failed")
	}

	// Correct password on a disabled account is AccountDisabled, not
	// InvalidCredentials.
	_, _, err = svc.Login(ctx, "alice@example.com", "Correct1Horse", time.Now())
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	// Wrong password on a disabled account must NOT reveal the disabled state.
	_, _, err = svc.Login(ctx, "alice@example.com", "Wrong1Password", time.Now())
	if !IsInvalidCredentials(err) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice", Email: "alice@example.com", Password: "Correct1Horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	name := "Alice B. Example"
	got, err := svc.UpdateProfile(ctx, u.ID, UserPatch{FullName: &name})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if got.FullName != name {
		t.Fatalf("full_name = %q", got.FullName)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("email changed unexpectedly: %q", got.Email)
	}

	// Empty patch is a no-op.
	same, err := svc.UpdateProfile(ctx, u.ID, UserPatch{})
	if err != nil {
		t.Fatalf("empty patch error: %v", err)
	}
	if same.FullName != name {
		t.Fatalf("empty patch mutated profile: %+v", same)
	}

	// Changing to another user's email conflicts.
	if _, err := svc.Register(ctx, RegisterInput{
		FullName: "Bob", Email: "bob@example.com", Password: "Correct1Horse",
	}); err != nil {
		t.Fatalf("Register bob error: %v", err)
	}
	taken := "BOB@example.com"
	if _, err := svc.UpdateProfile(ctx, u.ID, UserPatch{Email: &taken}); !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Keeping your own email (re-submitted) is not a conflict.
	own := "ALICE@example.com"
	if _, err := svc.UpdateProfile(ctx, u.ID, UserPatch{Email: &own}); err != nil {
		t.Fatalf("own email re-submit error: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice", Email: "alice@example.com", Password: "Correct1Horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "Wrong1Password", "NewPassword1"); !errors.Is(err, ErrCurrentPasswordIncorrect) {
		t.Fatalf("expected ErrCurrentPasswordIncorrect, got %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "Correct1Horse", "weak"); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input for weak new password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "Correct1Horse", "NewPassword1"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "Correct1Horse", time.Now()); !IsInvalidCredentials(err) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "NewPassword1", time.Now()); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice", Email: "alice@example.com", Password: "Correct1Horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	issued, err := svc.Refresh(ctx, u, time.Now())
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if issued.AccessToken == "" || issued.TokenType != "bearer" {
		t.Fatalf("issued = %+v", issued)
	}
}
