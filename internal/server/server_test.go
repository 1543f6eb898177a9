package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard/internal/adapters/exports"
	"todoboard/internal/blob"
	"todoboard/internal/config"
	"todoboard/internal/infra/persistence/memory"
	"todoboard/internal/logging"
	"todoboard/internal/observability"
	"todoboard/internal/todo"
	"todoboard/internal/web"
)

type panickyStore struct{ todo.Store }

func (panickyStore) ByStatus(context.Context, todo.Status) ([]todo.Todo, error) {
	panic("store exploded")
}

func newDeps(t *testing.T, store todo.Store, logOut io.Writer) Deps {
	t.Helper()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	return Deps{
		Store:    store,
		Exporter: exports.NewExporter(store, blob.NewMemory()),
		Renderer: renderer,
		Metrics:  observability.NewMetrics(store),
		Logger:   logging.New(logging.Options{Level: "debug", Format: "json", Output: logOut}),
	}
}

func serveOnce(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v[0])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirectsToTodos(t *testing.T) {
	h := NewHandler(newDeps(t, memory.NewStore(), io.Discard))
	rec := serveOnce(h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/todos", rec.Header().Get("Location"))
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	h := NewHandler(newDeps(t, memory.NewStore(), io.Discard))
	rec := serveOnce(h, http.MethodGet, "/does/not/exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), msgPageNotFound)
}

func TestNotFoundWithoutRendererIsPlainText(t *testing.T) {
	h := NewHandler(Deps{Store: memory.NewStore()})
	rec := serveOnce(h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgPageNotFound+"\n", rec.Body.String())

	rec = serveOnce(h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are off without a registry")
}

func TestRoutesAreWired(t *testing.T) {
	store := memory.NewStore()
	h := NewHandler(newDeps(t, store, io.Discard))
	jsonAccept := http.Header{"Accept": {"application/json"}}

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"Ship it"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serveOnce(h, http.MethodGet, "/todos", jsonAccept)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Todos todo.Board `json:"todos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Todos.Todo, 1)

	rec = serveOnce(h, http.MethodGet, "/todos", http.Header{"Accept": {"text/html"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ship it")

	rec = serveOnce(h, http.MethodPost, "/todos/exports?format=csv", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serveOnce(h, http.MethodGet, "/static/js/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serveOnce(h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `todoboard_http_requests_total{code="201",method="POST",route="POST /todos"} 1`)
	assert.Contains(t, rec.Body.String(), `todoboard_todos{status="Todo"} 1`)

	rec = serveOnce(h, http.MethodDelete, "/todos/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestCustomMetricsPath(t *testing.T) {
	deps := newDeps(t, memory.NewStore(), io.Discard)
	deps.MetricsPath = "/internal/metrics"
	h := NewHandler(deps)
	assert.Equal(t, http.StatusOK, serveOnce(h, http.MethodGet, "/internal/metrics", nil).Code)
	assert.Equal(t, http.StatusNotFound, serveOnce(h, http.MethodGet, "/metrics", nil).Code)
}

func TestRequestIDIsAssignedAndPropagated(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(newDeps(t, memory.NewStore(), &logs))

	rec := serveOnce(h, http.MethodGet, "/todos", http.Header{"Accept": {"application/json"}})
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, logs.String(), generated)

	rec = serveOnce(h, http.MethodGet, "/todos", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = serveOnce(h, http.MethodGet, "/todos", http.Header{RequestIDHeader: {strings.Repeat("x", maxRequestIDLen+1)}})
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestAccessLogRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(newDeps(t, memory.NewStore(), &logs))
	serveOnce(h, http.MethodDelete, "/todos/9", nil)

	var entry map[string]any
	line := strings.TrimSpace(logs.String())
	require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "DELETE", entry["method"])
	assert.Equal(t, "/todos/9", entry["path"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
}

func TestPanicRendersServerErrorPage(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(newDeps(t, panickyStore{}, &logs))

	rec := serveOnce(h, http.MethodGet, "/todos", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), msgInternal)
	assert.Contains(t, logs.String(), "panic serving request")
	assert.Contains(t, logs.String(), "store exploded")
	assert.Contains(t, logs.String(), `"status":500`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	cfg := config.Server{ShutdownTimeout: config.Duration{Duration: time.Second}}
	go func() { done <- Serve(ctx, ln, cfg, NewHandler(Deps{Store: memory.NewStore()}), logging.Noop()) }()

	url := "http://" + ln.Addr().String() + "/todos"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunRejectsBadAddress(t *testing.T) {
	err := Run(context.Background(), config.Server{Addr: "256.0.0.1:bad"}, http.NotFoundHandler(), nil)
	assert.ErrorContains(t, err, "listen")
}
