// Package todo defines the todo record, its status tags and the store contract
// shared by every persistence backend.
package todo

import (
	"context"
	"errors"
	"time"
)

// Status is the coarse workflow tag carried by a todo. Any status may follow any other.
type Status string

const (
	StatusTodo      Status = "Todo"
	StatusDoing     Status = "Doing"
	StatusCompleted Status = "Completed"
)

// Statuses lists the known status tags in board order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusDoing, StatusCompleted}
}

// Valid reports whether s is one of the known status tags.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusCompleted:
		return true
	default:
		return false
	}
}

// TimestampLayout formats CreatedAt as UTC ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Todo is a single task record.
type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Patch is a partial update. Nil fields are left untouched by Apply.
type Patch struct {
	Title  *string `json:"title,omitempty"`
	Status *Status `json:"status,omitempty"`
}

// Apply returns a copy of t with every field present in p overwritten.
// The id is always carried over from t.
func (p Patch) Apply(t Todo) Todo {
	out := t
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	out.ID = t.ID
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Status == nil
}

// ErrNotFound is returned when an operation references an unknown id.
var ErrNotFound = errors.New("todo not found")

// Store owns the authoritative todo collection.
//
// Implementations must be safe for concurrent use: concurrent Create calls never
// mint the same id, and ids are never reused after Delete.
type Store interface {
	// Create stores a new todo with status Todo. The title is not validated.
	Create(ctx context.Context, title string) (Todo, error)
	// All returns every todo in insertion order.
	All(ctx context.Context) ([]Todo, error)
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (Todo, error)
	// Update merges p onto the stored record and returns the result, or ErrNotFound.
	Update(ctx context.Context, id string, p Patch) (Todo, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// ByStatus returns the todos carrying status in insertion order.
	ByStatus(ctx context.Context, status Status) ([]Todo, error)
}
