package todo

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

	"tasklist/cmd/identity/ids"
)

// PostgresStore implements todo persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Owner scoping happens in SQL (WHERE owner_id = $n) so a wrong-owner id
//   and a missing id are the same zero-row outcome.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "tasklist").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("todo: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("todo: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
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
		return nil, fmt.Errorf("todo: nil pool")
	}
	return st, nil
}

// EnsureSchema creates the todos table if it does not exist.
// The users table must exist first; run the identity bootstrap before this one.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("todo: nil store")
	}

	todos := pgIdent(s.schema, "todos")
	users := pgIdent(s.schema, "users")

	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS `+todos+` (
		     id         TEXT PRIMARY KEY,
		     owner_id   TEXT NOT NULL,
		     task       TEXT NOT NULL,
		     completed  BOOLEAN NOT NULL DEFAULT FALSE,
		     created_at TIMESTAMPTZ NOT NULL,
		     updated_at TIMESTAMPTZ NOT NULL,
		     CONSTRAINT fk_todos_owner FOREIGN KEY (owner_id)
		         REFERENCES `+users+` (id) ON DELETE CASCADE
		 )`,
	)
	if err != nil {
		return fmt.Errorf("todo: create todos table: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_todos_owner_id ON `+todos+` (owner_id, id)`,
	)
	if err != nil {
		return fmt.Errorf("todo: create owner index: %w", err)
	}
	return nil
}

const todoColumns = `id, owner_id, task, completed, created_at, updated_at`

// Create inserts a new todo row.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Todo, error) {
	if s == nil || s.pool == nil {
		return Todo{}, fmt.Errorf("todo: nil store")
	}
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return Todo{}, fmt.Errorf("%w: missing owner id", ErrInvalidInput)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Todo{}, err
	}

	out := Todo{
		ID:        id,
		OwnerID:   in.OwnerID,
		Task:      in.Task,
		Completed: in.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	todos := pgIdent(s.schema, "todos")
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+todos+` (`+todoColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		out.ID, out.OwnerID, out.Task, out.Completed, out.CreatedAt, out.UpdatedAt,
	)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			// Owner row vanished between auth and insert.
			return Todo{}, fmt.Errorf("%w: owner", ErrNotFound)
		}
		return Todo{}, err
	}
	return out, nil
}

// Get fetches one todo by owner and id.
func (s *PostgresStore) Get(ctx context.Context, ownerID, id string) (Todo, error) {
	if s == nil || s.pool == nil {
		return Todo{}, fmt.Errorf("todo: nil store")
	}
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}

	todos := pgIdent(s.schema, "todos")
	return scanTodo(s.pool.QueryRow(ctx,
		`SELECT `+todoColumns+` FROM `+todos+`
		  WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	))
}

// List returns one page of an owner's todos ordered by insertion (id ASC),
// plus the total count matching the filter.
func (s *PostgresStore) List(ctx context.Context, in ListInput) (ListResult, error) {
	if s == nil || s.pool == nil {
		return ListResult{}, fmt.Errorf("todo: nil store")
	}
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}

	todos := pgIdent(s.schema, "todos")

	where := `owner_id = $1`
	args := []any{in.OwnerID}
	if in.Completed != nil {
		args = append(args, *in.Completed)
		where += fmt.Sprintf(` AND completed = $%d`, len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+todos+` WHERE `+where, args...,
	).Scan(&total); err != nil {
		return ListResult{}, err
	}

	args = append(args, in.Limit, in.Skip)
	rows, err := s.pool.Query(ctx,
		`SELECT `+todoColumns+` FROM `+todos+`
		  WHERE `+where+`
		  ORDER BY id ASC
		  LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	items := make([]Todo, 0, in.Limit)
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Task, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return ListResult{}, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// Update applies a partial update scoped to the owner.
func (s *PostgresStore) Update(ctx context.Context, ownerID, id string, patch Patch, now time.Time) (Todo, error) {
	if s == nil || s.pool == nil {
		return Todo{}, fmt.Errorf("todo: nil store")
	}
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	if patch.IsEmpty() {
		return s.Get(ctx, ownerID, id)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	set := make([]string, 0, 3)
	args := make([]any, 0, 5)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Task != nil {
		set = append(set, "task = "+arg(*patch.Task))
	}
	if patch.Completed != nil {
		set = append(set, "completed = "+arg(*patch.Completed))
	}
	set = append(set, "updated_at = "+arg(now))

	todos := pgIdent(s.schema, "todos")
	return scanTodo(s.pool.QueryRow(ctx,
		`UPDATE `+todos+`
		    SET `+strings.Join(set, ", ")+`
		  WHERE owner_id = `+arg(ownerID)+` AND id = `+arg(id)+`
		 RETURNING `+todoColumns,
		args...,
	))
}

// Delete removes one todo scoped to the owner.
func (s *PostgresStore) Delete(ctx context.Context, ownerID, id string) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("todo: nil store")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	todos := pgIdent(s.schema, "todos")
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM `+todos+` WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts an owner's todos in one scan.
func (s *PostgresStore) Stats(ctx context.Context, ownerID string) (Stats, error) {
	if s == nil || s.pool == nil {
		return Stats{}, fmt.Errorf("todo: nil store")
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	todos := pgIdent(s.schema, "todos")

	var out Stats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE completed)
		   FROM `+todos+`
		  WHERE owner_id = $1`,
		ownerID,
	).Scan(&out.Total, &out.Completed)
	if err != nil {
		return Stats{}, err
	}

	out.Pending = out.Total - out.Completed
	out.CompletionRate = completionRate(out.Completed, out.Total)
	return out, nil
}

// ---- helpers ----

func scanTodo(row pgx.Row) (Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.OwnerID, &t.Task, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, err
	}
	return t, nil
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503" // foreign_key_violation
}
