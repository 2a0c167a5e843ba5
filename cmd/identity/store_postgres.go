package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements user persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Email uniqueness is enforced by a unique index on email_norm; the store
//   classifies SQLSTATE 23505 into ConflictError so callers never parse pg errors.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "tasklist").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "tasklist",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Schema returns the configured schema name.
func (s *PostgresStore) Schema() string { return s.schema }

// EnsureSchema creates the schema and users table if they do not exist.
// Idempotent; intended to run once at startup before serving traffic.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("identity: nil store")
	}

	if _, err := s.pool.Exec(ctx,
		`CREATE SCHEMA IF NOT EXISTS `+pgx.Identifier{s.schema}.Sanitize(),
	); err != nil {
		return fmt.Errorf("identity: create schema: %w", err)
	}

	users := pgIdent(s.schema, "users")
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS `+users+` (
		     id            TEXT PRIMARY KEY,
		     full_name     TEXT NOT NULL,
		     email         TEXT NOT NULL,
		     email_norm    TEXT NOT NULL,
		     password_hash TEXT NOT NULL,
		     is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		     created_at    TIMESTAMPTZ NOT NULL,
		     updated_at    TIMESTAMPTZ NOT NULL,
		     CONSTRAINT uq_users_email_norm UNIQUE (email_norm)
		 )`,
	)
	if err != nil {
		return fmt.Errorf("identity: create users table: %w", err)
	}
	return nil
}

const userColumns = `id, full_name, email, email_norm, password_hash, is_active, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	if fullName == "" {
		return User{}, pgInvalid(op, "full name is required")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, pgInvalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	out := User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		PasswordHash: in.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	users := pgIdent(s.schema, "users")
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		out.ID, out.FullName, out.Email, out.EmailNorm,
		out.PasswordHash, out.IsActive, out.CreatedAt, out.UpdatedAt,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return out, nil
}

// GetUserByID fetches a user row by id. Returns ErrNotFound when missing.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	users := pgIdent(s.schema, "users")
	return s.scanUser(op,
		s.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`, id),
	)
}

// GetUserByEmail fetches a user row by normalized email.
// Returns ErrNotFound when missing.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	users := pgIdent(s.schema, "users")
	return s.scanUser(op,
		s.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM `+users+` WHERE email_norm = $1`, norm),
	)
}

// UpdateUser applies a partial profile update and returns the updated row.
func (s *PostgresStore) UpdateUser(ctx context.Context, id string, patch UserPatch, now time.Time) (User, error) {
	const op = "identity.UpdateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if patch.IsEmpty() {
		return s.GetUserByID(ctx, id)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.FullName != nil {
		set = append(set, "full_name = "+arg(strings.TrimSpace(*patch.FullName)))
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		set = append(set, "email = "+arg(email))
		set = append(set, "email_norm = "+arg(NormalizeEmail(email)))
	}
	set = append(set, "updated_at = "+arg(now))

	users := pgIdent(s.schema, "users")
	row := s.pool.QueryRow(ctx,
		`UPDATE `+users+`
		    SET `+strings.Join(set, ", ")+`
		  WHERE id = `+arg(id)+`
		 RETURNING `+userColumns,
		args...,
	)

	out, err := s.scanUser(op, row)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return out, nil
}

// UpdatePasswordHash replaces the stored credential for a user.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id string, passwordHash string, now time.Time) error {
	const op = "identity.UpdatePasswordHash"

	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return NotFoundError{Op: op, Resource: "user"}
	}
	if strings.TrimSpace(passwordHash) == "" {
		return pgInvalid(op, "password hash is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")
	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET password_hash = $1,
		        updated_at = $2
		  WHERE id = $3`,
		passwordHash, now, id,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ---- helpers ----

type pgRow interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanUser(op string, row pgRow) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.EmailNorm,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names. Fall back to heuristic matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case c == "uq_users_email_norm", strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
