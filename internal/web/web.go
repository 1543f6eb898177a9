// Package web renders the HTML board and serves its static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"todoboard/internal/todo"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticPrefix is the URL prefix under which Static is mounted.
const StaticPrefix = "/static/"

// Renderer executes the embedded page templates.
type Renderer struct {
	board *template.Template
	error *template.Template
}

var funcs = template.FuncMap{
	"moves": func(current todo.Status) []todo.Status {
		out := make([]todo.Status, 0, 2)
		for _, s := range todo.Statuses() {
			if s != current {
				out = append(out, s)
			}
		}
		return out
	},
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	board, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse board template: %w", err)
	}
	errPage, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse error template: %w", err)
	}
	return &Renderer{board: board, error: errPage}, nil
}

type boardPage struct {
	Title   string
	Columns []todo.Column
	Total   int
}

type errorPage struct {
	Title   string
	Status  int
	Message string
}

// Board writes the three-column board with the given status code.
func (r *Renderer) Board(w http.ResponseWriter, status int, board todo.Board) error {
	return render(w, status, r.board, boardPage{Title: "Todo Board", Columns: board.Columns(), Total: board.Len()})
}

// Error writes the error page with the given status code.
func (r *Renderer) Error(w http.ResponseWriter, status int, message string) error {
	return render(w, status, r.error, errorPage{Title: strconv.Itoa(status) + " " + http.StatusText(status), Status: status, Message: message})
}

// render executes into a buffer so a template fault never emits a partial page.
func render(w http.ResponseWriter, status int, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute %s: %w", tmpl.Name(), err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets; mount it at StaticPrefix.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(StaticPrefix, http.FileServer(http.FS(sub)))
}
