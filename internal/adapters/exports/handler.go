package exports

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"todoboard/internal/blob"
	"todoboard/internal/logging"
)

const presignExpiry = 15 * time.Minute

// Handler serves board exports.
type Handler struct {
	Exporter *Exporter
	Logger   logging.Logger
}

// NewHandler constructs a Handler. A nil logger discards output.
func NewHandler(exporter *Exporter, logger logging.Logger) *Handler {
	return &Handler{Exporter: exporter, Logger: logging.OrNoop(logger)}
}

// Register installs the export routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /todos/exports", h.handleCreate)
	mux.HandleFunc("GET /todos/exports", h.handleList)
	mux.HandleFunc("GET /todos/exports/{name}", h.handleDownload)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	format, err := negotiateFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported export format")
		return
	}
	artifact, err := h.Exporter.Export(r.Context(), format)
	if err != nil {
		h.fault(r, "export", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	h.withURL(r, &artifact)
	w.Header().Set("Location", downloadPath(artifact.Name))
	writeJSON(w, http.StatusCreated, map[string]any{"export": artifact})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.Exporter.List(r.Context())
	if err != nil {
		h.fault(r, "list exports", err)
		writeError(w, http.StatusInternalServerError, "Export listing failed")
		return
	}
	for i := range artifacts {
		artifacts[i].URL = downloadPath(artifacts[i].Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": artifacts})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	artifact, rc, err := h.Exporter.Open(r.Context(), r.PathValue("name"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Export not found")
		return
	}
	if err != nil {
		h.fault(r, "open export", err)
		writeError(w, http.StatusInternalServerError, "Export download failed")
		return
	}
	defer rc.Close()
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if artifact.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.fault(r, "stream export", err)
	}
}

// withURL prefers a presigned backend URL and falls back to the download route.
func (h *Handler) withURL(r *http.Request, a *Artifact) {
	url, err := h.Exporter.PresignURL(r.Context(), *a, presignExpiry)
	switch {
	case err == nil:
		a.URL = url
	case errors.Is(err, blob.ErrUnsupported):
		a.URL = downloadPath(a.Name)
	default:
		logging.OrNoop(h.Logger).Warn("presign export failed", "name", a.Name, "err", err)
		a.URL = downloadPath(a.Name)
	}
}

func (h *Handler) fault(r *http.Request, op string, err error) {
	logging.OrNoop(h.Logger).Error("export operation failed", "op", op, "path", r.URL.Path, "err", err)
}

func downloadPath(name string) string { return "/todos/exports/" + name }

// negotiateFormat reads ?format= first and falls back to the Accept header.
func negotiateFormat(r *http.Request) (Format, error) {
	if wanted := r.URL.Query().Get("format"); wanted != "" {
		return ParseFormat(wanted)
	}
	if strings.Contains(r.Header.Get("Accept"), "text/csv") {
		return FormatCSV, nil
	}
	return FormatJSON, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
