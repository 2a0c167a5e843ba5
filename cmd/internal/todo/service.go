package todo

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100

	maxTaskLen = 500
)

// Service validates input and applies list semantics on top of a Store.
type Service struct {
	store Store
}

// NewService wires the todo service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("todo: nil store")
	}
	return &Service{store: store}, nil
}

// Create validates the task text and persists a new todo.
func (s *Service) Create(ctx context.Context, ownerID, task string, completed bool) (Todo, error) {
	task = strings.TrimSpace(task)
	if err := validateTask(task); err != nil {
		return Todo{}, err
	}
	return s.store.Create(ctx, CreateInput{
		OwnerID:   ownerID,
		Task:      task,
		Completed: completed,
	})
}

// Get fetches one todo scoped to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Todo, error) {
	return s.store.Get(ctx, ownerID, id)
}

// List returns one page of an owner's todos. Limit 0 means the default page
// size; out-of-range paging values are rejected rather than clamped.
func (s *Service) List(ctx context.Context, in ListInput) (ListResult, error) {
	if in.Skip < 0 {
		return ListResult{}, fmt.Errorf("%w: skip must not be negative", ErrInvalidInput)
	}
	if in.Limit == 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit < 1 || in.Limit > maxListLimit {
		return ListResult{}, fmt.Errorf("%w: limit must be in [1..%d]", ErrInvalidInput, maxListLimit)
	}
	return s.store.List(ctx, in)
}

// Update applies a partial update. When requireFields is set (PATCH
// semantics), an empty patch is rejected with ErrNoFields; otherwise an
// empty patch returns the current row unchanged.
func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch, requireFields bool) (Todo, error) {
	if patch.IsEmpty() {
		if requireFields {
			return Todo{}, ErrNoFields
		}
		return s.store.Get(ctx, ownerID, id)
	}
	if patch.Task != nil {
		task := strings.TrimSpace(*patch.Task)
		if err := validateTask(task); err != nil {
			return Todo{}, err
		}
		patch.Task = &task
	}
	return s.store.Update(ctx, ownerID, id, patch, time.Now().UTC())
}

// Delete removes one todo scoped to the owner.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

// Stats summarizes the owner's list.
func (s *Service) Stats(ctx context.Context, ownerID string) (Stats, error) {
	return s.store.Stats(ctx, ownerID)
}

func validateTask(task string) error {
	if task == "" {
		return fmt.Errorf("%w: task must not be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(task) > maxTaskLen {
		return fmt.Errorf("%w: task is too long", ErrInvalidInput)
	}
	return nil
}

// completionRate returns completed/total as a percentage rounded to one
// decimal place. An empty list is 0, not NaN.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*10) / 10
}
