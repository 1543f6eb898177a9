// Package todos serves the todo JSON API and the HTML board.
package todos

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"todoboard/internal/logging"
	"todoboard/internal/todo"
)

const maxBodyBytes = 1 << 20

// Error messages returned in {"error": ...} bodies.
const (
	MsgTitleRequired = "Title is required"
	MsgInvalidBody   = "Invalid request body"
	MsgNotFound      = "Todo not found"
	MsgInvalidStatus = "Invalid status"
	MsgInternal      = "Internal server error"
)

// Renderer draws HTML pages for browser requests.
type Renderer interface {
	Board(w http.ResponseWriter, status int, board todo.Board) error
	Error(w http.ResponseWriter, status int, message string) error
}

// Handler exposes a todo.Store over HTTP.
type Handler struct {
	Store    todo.Store
	Renderer Renderer
	Logger   logging.Logger
}

// NewHandler constructs a Handler. A nil logger discards output.
func NewHandler(store todo.Store, renderer Renderer, logger logging.Logger) *Handler {
	return &Handler{Store: store, Renderer: renderer, Logger: logging.OrNoop(logger)}
}

// Register installs the todo routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /todos", h.handleList)
	mux.HandleFunc("POST /todos", h.handleCreate)
	mux.HandleFunc("PUT /todos/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /todos/{id}", h.handleDelete)
}

type listResponse struct {
	Todos todo.Board `json:"todos"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	board, err := todo.Group(r.Context(), h.Store)
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")
	if err != nil {
		h.fault(r, "list", err)
		if wantsJSON || h.Renderer == nil {
			writeError(w, http.StatusInternalServerError, MsgInternal)
			return
		}
		h.renderError(w, r, http.StatusInternalServerError, MsgInternal)
		return
	}
	if wantsJSON || h.Renderer == nil {
		writeJSON(w, http.StatusOK, listResponse{Todos: board})
		return
	}
	if err := h.Renderer.Board(w, http.StatusOK, board); err != nil {
		h.fault(r, "render board", err)
		h.renderError(w, r, http.StatusInternalServerError, MsgInternal)
	}
}

type createRequest struct {
	Title string `json:"title"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if msg, ok := validateCreate(doc); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	var req createRequest
	if err := remarshal(doc, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	created, err := h.Store.Create(r.Context(), req.Title)
	if err != nil {
		h.fault(r, "create", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type updateRequest struct {
	Title  *string      `json:"title"`
	Status *todo.Status `json:"status"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	var patch todo.Patch
	if doc != nil {
		if msg, ok := validateUpdate(doc); !ok {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		var req updateRequest
		if err := remarshal(doc, &req); err != nil {
			writeError(w, http.StatusBadRequest, MsgInvalidBody)
			return
		}
		patch = todo.Patch{Title: req.Title, Status: req.Status}
	}
	updated, err := h.Store.Update(r.Context(), r.PathValue("id"), patch)
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeError(w, http.StatusNotFound, MsgNotFound)
	case err != nil:
		h.fault(r, "update", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
	default:
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.Delete(r.Context(), r.PathValue("id"))
	switch {
	case err != nil:
		h.fault(r, "delete", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
	case !removed:
		writeError(w, http.StatusNotFound, MsgNotFound)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) fault(r *http.Request, op string, err error) {
	logging.OrNoop(h.Logger).Error("todo store operation failed", "op", op, "path", r.URL.Path, "err", err)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := h.Renderer.Error(w, status, message); err != nil {
		h.fault(r, "render error page", err)
		http.Error(w, message, status)
	}
}

// readDocument decodes the request body into a generic JSON value. An empty
// body yields nil. Malformed JSON is answered with 400 and ok=false.
func readDocument(w http.ResponseWriter, r *http.Request) (any, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return nil, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, true
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return nil, false
	}
	return doc, true
}

func remarshal(doc any, dst any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
