package todo

import (
	"context"
	"time"
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID        string
	OwnerID   string
	Task      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Task      *string
	Completed *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Task == nil && p.Completed == nil
}

// CreateInput describes a todo to persist.
type CreateInput struct {
	OwnerID   string
	Task      string
	Completed bool
	Now       time.Time
}

// ListInput selects a page of one owner's todos.
// Completed, when set, filters by completion state.
type ListInput struct {
	OwnerID   string
	Skip      int
	Limit     int
	Completed *bool
}

// ListResult is one page plus the total count matching the filter.
type ListResult struct {
	Items []Todo
	Total int
}

// Stats summarizes one owner's list.
// CompletionRate is a percentage rounded to one decimal; 0 when the list is empty.
type Stats struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate float64
}

// Store is the todo persistence boundary. Implementations must return
// ErrNotFound for ids that do not exist under the given owner, with no
// distinction for ids that exist under a different owner.
type Store interface {
	Create(ctx context.Context, in CreateInput) (Todo, error)
	Get(ctx context.Context, ownerID, id string) (Todo, error)
	List(ctx context.Context, in ListInput) (ListResult, error)
	Update(ctx context.Context, ownerID, id string, patch Patch, now time.Time) (Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
	Stats(ctx context.Context, ownerID string) (Stats, error)
}
