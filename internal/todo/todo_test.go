package todo_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard/internal/infra/persistence/memory"
	"todoboard/internal/todo"
	"todoboard/internal/todo/todotest"
)

func TestStatusValid(t *testing.T) {
	for _, s := range todo.Statuses() {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []todo.Status{"", "todo", "Done", "Invalid"} {
		assert.False(t, s.Valid(), s)
	}
}

func TestPatchApplyPinsID(t *testing.T) {
	original := todo.Todo{ID: "1", Title: "a", Status: todo.StatusTodo, CreatedAt: "2024-01-01T00:00:00.000Z"}
	title := "b"
	got := todo.Patch{Title: &title}.Apply(original)
	assert.Equal(t, todo.Todo{ID: "1", Title: "b", Status: todo.StatusTodo, CreatedAt: original.CreatedAt}, got)
	assert.Equal(t, "a", original.Title, "apply must not mutate its input")
}

func TestPatchIgnoresIDInPayload(t *testing.T) {
	var p todo.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"999","status":"Completed"}`), &p))
	got := p.Apply(todo.Todo{ID: "7", Title: "keep"})
	assert.Equal(t, "7", got.ID)
	assert.Equal(t, todo.StatusCompleted, got.Status)
	assert.False(t, p.IsEmpty())
	assert.True(t, todo.Patch{}.IsEmpty())
}

func TestTodoJSONShape(t *testing.T) {
	raw, err := json.Marshal(todo.Todo{ID: "1", Title: "Buy milk", Status: todo.StatusTodo, CreatedAt: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","title":"Buy milk","status":"Todo","createdAt":"2024-01-01T00:00:00.000Z"}`, string(raw))
}

func TestFormatTimestampUTC(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 59, 59, 999_000_000, time.UTC)
	assert.Equal(t, "2024-12-31T23:59:59.999Z", todo.FormatTimestamp(ts))
}

func TestGroupBuckets(t *testing.T) {
	store := memory.NewStore()
	seeded := todotest.Seed(t, store, map[string]todo.Status{
		"Todo 2": todo.StatusDoing,
		"Todo 3": todo.StatusCompleted,
	}, "Todo 1", "Todo 2", "Todo 3", "Todo 4")

	board, err := todo.Group(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []todo.Todo{seeded[0], seeded[3]}, board.Todo)
	assert.Equal(t, []todo.Todo{seeded[1]}, board.Doing)
	assert.Equal(t, []todo.Todo{seeded[2]}, board.Completed)
	assert.Equal(t, 4, board.Len())

	cols := board.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, todo.StatusTodo, cols[0].Status)
	assert.Equal(t, todo.StatusDoing, cols[1].Status)
	assert.Equal(t, todo.StatusCompleted, cols[2].Status)
}

func TestGroupEmptyEncodesArrays(t *testing.T) {
	board, err := todo.Group(context.Background(), memory.NewStore())
	require.NoError(t, err)
	raw, err := json.Marshal(board)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Todo":[],"Doing":[],"Completed":[]}`, string(raw))
}

type failingStore struct{ todo.Store }

func (failingStore) ByStatus(context.Context, todo.Status) ([]todo.Todo, error) {
	return nil, errors.New("boom")
}

func TestGroupPropagatesStoreErrors(t *testing.T) {
	_, err := todo.Group(context.Background(), failingStore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
