// Package memory provides the in-process todo store used by default and in tests.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"todoboard/internal/todo"
)

// Compile-time contract assertion.
var _ todo.Store = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps todos in a map guarded by a single RWMutex. Insertion order is
// tracked separately so listings are deterministic.
type Store struct {
	mu     sync.RWMutex
	todos  map[string]todo.Todo
	order  []string
	lastID uint64
	now    func() time.Time
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		todos: make(map[string]todo.Todo),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create mints the next id and stores a todo in the Todo column.
func (s *Store) Create(_ context.Context, title string) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	t := todo.Todo{
		ID:        strconv.FormatUint(s.lastID, 10),
		Title:     title,
		Status:    todo.StatusTodo,
		CreatedAt: todo.FormatTimestamp(s.now()),
	}
	s.todos[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

// All returns every todo in insertion order.
func (s *Store) All(_ context.Context) ([]todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(todo.Todo) bool { return true }), nil
}

// Get returns the todo stored under id.
func (s *Store) Get(_ context.Context, id string) (todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	return t, nil
}

// Update merges p onto the todo stored under id.
func (s *Store) Update(_ context.Context, id string, p todo.Patch) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	updated := p.Apply(existing)
	updated.ID = existing.ID
	s.todos[id] = updated
	return updated, nil
}

// Delete removes the todo stored under id. The id counter is left untouched.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return false, nil
	}
	delete(s.todos, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// ByStatus returns the todos whose status equals status.
func (s *Store) ByStatus(_ context.Context, status todo.Status) ([]todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(t todo.Todo) bool { return t.Status == status }), nil
}

// Len returns the number of stored todos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

// Close is a no-op; the store lives for the process lifetime.
func (s *Store) Close() error { return nil }

// filter must be called with the lock held.
func (s *Store) filter(keep func(todo.Todo) bool) []todo.Todo {
	out := make([]todo.Todo, 0, len(s.order))
	for _, id := range s.order {
		if t := s.todos[id]; keep(t) {
			out = append(out, t)
		}
	}
	return out
}
