package todo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tasklist/cmd/identity/ids"
)

// InMemoryStore is a dev-only fallback when DB is not configured.
// Per-owner id slices preserve insertion order, matching the id ASC
// ordering the Postgres store gets from time-sorted ULIDs.
type InMemoryStore struct {
	mu    sync.Mutex
	byID  map[string]Todo
	owner map[string][]string // owner id -> todo ids, insertion order
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[string]Todo),
		owner: make(map[string][]string),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// Create inserts a new todo.
func (s *InMemoryStore) Create(ctx context.Context, in CreateInput) (Todo, error) {
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

	t := Todo{
		ID:        id,
		OwnerID:   in.OwnerID,
		Task:      in.Task,
		Completed: in.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[t.ID] = t
	s.owner[t.OwnerID] = append(s.owner[t.OwnerID], t.ID)
	return t, nil
}

// Get fetches one todo by owner and id.
func (s *InMemoryStore) Get(ctx context.Context, ownerID, id string) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok || t.OwnerID != ownerID {
		return Todo{}, ErrNotFound
	}
	return t, nil
}

// List returns one page of an owner's todos plus the filtered total.
func (s *InMemoryStore) List(ctx context.Context, in ListInput) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}

	s.mu.Lock()
	idsForOwner := append([]string(nil), s.owner[in.OwnerID]...)
	snap := make([]Todo, 0, len(idsForOwner))
	for _, id := range idsForOwner {
		t := s.byID[id]
		if in.Completed != nil && t.Completed != *in.Completed {
			continue
		}
		snap = append(snap, t)
	}
	s.mu.Unlock()

	total := len(snap)

	start := in.Skip
	if start > total {
		start = total
	}
	end := start + in.Limit
	if end > total {
		end = total
	}

	return ListResult{Items: snap[start:end], Total: total}, nil
}

// Update applies a partial update scoped to the owner.
func (s *InMemoryStore) Update(ctx context.Context, ownerID, id string, patch Patch, now time.Time) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok || t.OwnerID != ownerID {
		return Todo{}, ErrNotFound
	}
	if patch.IsEmpty() {
		return t, nil
	}

	if patch.Task != nil {
		t.Task = *patch.Task
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = now

	s.byID[id] = t
	return t, nil
}

// Delete removes one todo scoped to the owner.
func (s *InMemoryStore) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok || t.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.byID, id)

	list := s.owner[ownerID]
	for i, v := range list {
		if v == id {
			s.owner[ownerID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// Stats counts an owner's todos.
func (s *InMemoryStore) Stats(ctx context.Context, ownerID string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out Stats
	for _, id := range s.owner[ownerID] {
		out.Total++
		if s.byID[id].Completed {
			out.Completed++
		}
	}
	out.Pending = out.Total - out.Completed
	out.CompletionRate = completionRate(out.Completed, out.Total)
	return out, nil
}
