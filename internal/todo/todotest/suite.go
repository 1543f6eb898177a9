// Package todotest holds the behavioural contract every todo.Store backend must satisfy.
package todotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard/internal/todo"
)

// Factory builds a fresh, empty store for a single test.
type Factory func(t *testing.T) todo.Store

// RunStoreSuite exercises the full todo.Store contract against stores built by newStore.
func RunStoreSuite(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("CreateDefaults", func(t *testing.T) {
		store := newStore(t)
		created, err := store.Create(context.Background(), "Test Todo")
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Test Todo", created.Title)
		assert.Equal(t, todo.StatusTodo, created.Status)
		_, err = time.Parse(time.RFC3339, created.CreatedAt)
		assert.NoError(t, err, "createdAt must parse as ISO-8601")
	})

	t.Run("CreateMintsDistinctIDs", func(t *testing.T) {
		store := newStore(t)
		first, err := store.Create(context.Background(), "Todo 1")
		require.NoError(t, err)
		second, err := store.Create(context.Background(), "Todo 2")
		require.NoError(t, err)
		assert.Equal(t, "1", first.ID)
		assert.Equal(t, "2", second.ID)
	})

	t.Run("IDsNeverReused", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		first, err := store.Create(ctx, "one")
		require.NoError(t, err)
		second, err := store.Create(ctx, "two")
		require.NoError(t, err)
		ok, err := store.Delete(ctx, second.ID)
		require.NoError(t, err)
		require.True(t, ok)
		third, err := store.Create(ctx, "three")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, third.ID)
		assert.NotEqual(t, second.ID, third.ID)
		assert.Equal(t, "3", third.ID)
	})

	t.Run("AllEmpty", func(t *testing.T) {
		store := newStore(t)
		all, err := store.All(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("AllInsertionOrder", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		var want []todo.Todo
		for i := 1; i <= 3; i++ {
			created, err := store.Create(ctx, fmt.Sprintf("Todo %d", i))
			require.NoError(t, err)
			want = append(want, created)
		}
		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, all)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "999")
		assert.ErrorIs(t, err, todo.ErrNotFound)
	})

	t.Run("GetReturnsCreated", func(t *testing.T) {
		store := newStore(t)
		created, err := store.Create(context.Background(), "Test Todo")
		require.NoError(t, err)
		found, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, found)
	})

	t.Run("UpdateMergesFields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created, err := store.Create(ctx, "Original Title")
		require.NoError(t, err)
		title := "Updated Title"
		status := todo.StatusDoing
		updated, err := store.Update(ctx, created.ID, todo.Patch{Title: &title, Status: &status})
		require.NoError(t, err)
		want := created
		want.Title = title
		want.Status = status
		assert.Equal(t, want, updated)
		found, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, found)
	})

	t.Run("UpdatePreservesUnsetFields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created, err := store.Create(ctx, "Test Todo")
		require.NoError(t, err)
		status := todo.StatusDoing
		updated, err := store.Update(ctx, created.ID, todo.Patch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.Title, updated.Title)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, todo.StatusDoing, updated.Status)
	})

	t.Run("UpdateEmptyPatch", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created, err := store.Create(ctx, "Test Todo")
		require.NoError(t, err)
		updated, err := store.Update(ctx, created.ID, todo.Patch{})
		require.NoError(t, err)
		assert.Equal(t, created, updated)
	})

	t.Run("UpdateAcceptsUnknownStatus", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created, err := store.Create(ctx, "Test Todo")
		require.NoError(t, err)
		status := todo.Status("Blocked")
		updated, err := store.Update(ctx, created.ID, todo.Patch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	})

	t.Run("UpdateMissingLeavesStoreUnchanged", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Create(ctx, "Keep me")
		require.NoError(t, err)
		before, err := store.All(ctx)
		require.NoError(t, err)
		title := "Updated"
		_, err = store.Update(ctx, "999", todo.Patch{Title: &title})
		assert.ErrorIs(t, err, todo.ErrNotFound)
		after, err := store.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("DeleteExisting", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created, err := store.Create(ctx, "Test Todo")
		require.NoError(t, err)
		ok, err := store.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, todo.ErrNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created, err := store.Create(ctx, "Stay")
		require.NoError(t, err)
		ok, err := store.Delete(ctx, "999")
		require.NoError(t, err)
		assert.False(t, ok)
		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []todo.Todo{created}, all)
	})

	t.Run("ByStatus", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seeded := Seed(t, store, map[string]todo.Status{
			"Todo 1": todo.StatusTodo,
			"Todo 2": todo.StatusDoing,
			"Todo 3": todo.StatusCompleted,
			"Todo 4": todo.StatusCompleted,
		}, "Todo 1", "Todo 2", "Todo 3", "Todo 4")
		for _, status := range todo.Statuses() {
			items, err := store.ByStatus(ctx, status)
			require.NoError(t, err)
			for _, item := range items {
				assert.Equal(t, status, item.Status)
			}
		}
		completed, err := store.ByStatus(ctx, todo.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, []todo.Todo{seeded[2], seeded[3]}, completed)
	})

	t.Run("ByStatusUnknown", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Create(ctx, "Todo 1")
		require.NoError(t, err)
		items, err := store.ByStatus(ctx, "Invalid")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ConcurrentCreatesMintUniqueIDs", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		const workers = 16
		const perWorker = 10
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = make(map[string]struct{}, workers*perWorker)
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					created, err := store.Create(ctx, fmt.Sprintf("w%d-%d", w, i))
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					ids[created.ID] = struct{}{}
					mu.Unlock()
				}
			}(w)
		}
		wg.Wait()
		assert.Len(t, ids, workers*perWorker)
		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, workers*perWorker)
	})
}

// Seed creates todos with the given titles in order and moves each to the status
// assigned in statuses. It returns the final records in creation order.
func Seed(t *testing.T, store todo.Store, statuses map[string]todo.Status, titles ...string) []todo.Todo {
	t.Helper()
	ctx := context.Background()
	out := make([]todo.Todo, 0, len(titles))
	for _, title := range titles {
		created, err := store.Create(ctx, title)
		require.NoError(t, err)
		if status, ok := statuses[title]; ok && status != created.Status {
			s := status
			created, err = store.Update(ctx, created.ID, todo.Patch{Status: &s})
			require.NoError(t, err)
		}
		out = append(out, created)
	}
	return out
}
