package todo

import (
	"context"
	"fmt"
)

// Board partitions todos into one bucket per known status.
type Board struct {
	Todo      []Todo `json:"Todo"`
	Doing     []Todo `json:"Doing"`
	Completed []Todo `json:"Completed"`
}

// Column is one rendered bucket of a board.
type Column struct {
	Status Status
	Items  []Todo
}

// Columns returns the buckets in board order.
func (b Board) Columns() []Column {
	return []Column{
		{Status: StatusTodo, Items: b.Todo},
		{Status: StatusDoing, Items: b.Doing},
		{Status: StatusCompleted, Items: b.Completed},
	}
}

// Len returns the number of todos across all buckets.
func (b Board) Len() int {
	return len(b.Todo) + len(b.Doing) + len(b.Completed)
}

// Group builds a board from three ByStatus lookups.
func Group(ctx context.Context, s Store) (Board, error) {
	var board Board
	for _, status := range Statuses() {
		items, err := s.ByStatus(ctx, status)
		if err != nil {
			return Board{}, fmt.Errorf("list %s: %w", status, err)
		}
		if items == nil {
			items = []Todo{}
		}
		switch status {
		case StatusTodo:
			board.Todo = items
		case StatusDoing:
			board.Doing = items
		case StatusCompleted:
			board.Completed = items
		}
	}
	return board, nil
}
