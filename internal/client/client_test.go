package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard/internal/adapters/exports"
	"todoboard/internal/blob"
	"todoboard/internal/infra/persistence/memory"
	"todoboard/internal/server"
	"todoboard/internal/todo"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	store := memory.NewStore()
	srv := httptest.NewServer(server.NewHandler(server.Deps{
		Store:    store,
		Exporter: exports.NewExporter(store, blob.NewMemory()),
	}))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	created, err := c.Add(ctx, "Write report")
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, todo.StatusTodo, created.Status)

	moved, err := c.Move(ctx, created.ID, todo.StatusDoing)
	require.NoError(t, err)
	assert.Equal(t, todo.StatusDoing, moved.Status)

	renamed, err := c.Rename(ctx, created.ID, "Write final report")
	require.NoError(t, err)
	assert.Equal(t, "Write final report", renamed.Title)
	assert.Equal(t, todo.StatusDoing, renamed.Status)

	board, err := c.Board(ctx)
	require.NoError(t, err)
	assert.Empty(t, board.Todo)
	require.Len(t, board.Doing, 1)
	assert.Equal(t, renamed, board.Doing[0])

	artifact, err := c.Export(ctx, exports.FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, artifact.Name, ".csv")
	list, err := c.Exports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, artifact.Name, list[0].Name)

	require.NoError(t, c.Remove(ctx, created.ID))
	err = c.Remove(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestClientSurfacesServerMessages(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.Add(ctx, "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", apiErr.Message)

	_, err = c.Add(ctx, "x")
	require.NoError(t, err)
	_, err = c.Move(ctx, "1", todo.Status("Later"))
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid status", apiErr.Message)
	assert.EqualError(t, err, "server returned 400: Invalid status")

	_, err = c.Export(ctx, exports.Format("xml"))
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Unsupported export format", apiErr.Message)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Board(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestNewValidatesURL(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.base.String())

	_, err = New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://bad")
	assert.Error(t, err)
}
