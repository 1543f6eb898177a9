// Package exports snapshots the todo board into blob storage as JSON or CSV.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"todoboard/internal/blob"
	"todoboard/internal/todo"
)

// Format is an export serialisation.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// KeyPrefix is the blob key prefix under which exports are written.
const KeyPrefix = "exports/"

var (
	// ErrUnsupportedFormat is returned for formats other than json and csv.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNotFound is returned when an export name does not resolve to a blob.
	ErrNotFound = errors.New("export not found")
)

// ContentType returns the MIME type written for f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// ParseFormat normalises a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Artifact is a stored export. Name is the key without KeyPrefix.
type Artifact struct {
	Name string `json:"name"`
	blob.Info
}

// Option customises an Exporter.
type Option func(*Exporter)

// WithClock overrides the time source used for keys and exportedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides the random suffix of export keys.
func WithIDGenerator(next func() string) Option {
	return func(e *Exporter) {
		if next != nil {
			e.newID = next
		}
	}
}

// Exporter writes board snapshots. Exports are one-way; nothing reads them
// back into the todo store.
type Exporter struct {
	todos todo.Store
	blobs blob.Store
	now   func() time.Time
	newID func() string
}

// NewExporter constructs an Exporter over the given stores.
func NewExporter(todos todo.Store, blobs blob.Store, opts ...Option) *Exporter {
	e := &Exporter{
		todos: todos,
		blobs: blobs,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type jsonSnapshot struct {
	ExportedAt string     `json:"exportedAt"`
	Todos      todo.Board `json:"todos"`
}

// Export snapshots the grouped board in format and stores it.
func (e *Exporter) Export(ctx context.Context, format Format) (Artifact, error) {
	if format != FormatJSON && format != FormatCSV {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	board, err := todo.Group(ctx, e.todos)
	if err != nil {
		return Artifact{}, fmt.Errorf("group todos: %w", err)
	}
	now := e.now().UTC()
	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		err = writeCSV(&buf, board)
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(jsonSnapshot{ExportedAt: todo.FormatTimestamp(now), Todos: board})
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("encode %s export: %w", format, err)
	}
	name := fmt.Sprintf("%s-%s.%s", now.Format("20060102T150405Z"), e.newID(), format)
	info, err := e.blobs.Put(ctx, KeyPrefix+name, bytes.NewReader(buf.Bytes()), blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata: map[string]string{
			"format": string(format),
			"todos":  strconv.Itoa(board.Len()),
		},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store export %s: %w", name, err)
	}
	return Artifact{Name: name, Info: info}, nil
}

// List returns stored exports ordered by name.
func (e *Exporter) List(ctx context.Context) ([]Artifact, error) {
	infos, err := e.blobs.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	out := make([]Artifact, 0, len(infos))
	for _, info := range infos {
		out = append(out, Artifact{Name: strings.TrimPrefix(info.Key, KeyPrefix), Info: info})
	}
	return out, nil
}

// Open returns the artifact named name and its content. The caller closes it.
func (e *Exporter) Open(ctx context.Context, name string) (Artifact, io.ReadCloser, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return Artifact{}, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	info, rc, err := e.blobs.Get(ctx, KeyPrefix+name)
	if errors.Is(err, blob.ErrNotFound) {
		return Artifact{}, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("open export %s: %w", name, err)
	}
	return Artifact{Name: name, Info: info}, rc, nil
}

// PresignURL returns a direct download URL when the blob backend supports it.
func (e *Exporter) PresignURL(ctx context.Context, a Artifact, expiry time.Duration) (string, error) {
	return e.blobs.PresignURL(ctx, a.Key, blob.SignedURLOptions{Method: "GET", Expiry: expiry})
}

func writeCSV(w io.Writer, board todo.Board) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "status", "createdAt"}); err != nil {
		return err
	}
	for _, col := range board.Columns() {
		for _, t := range col.Items {
			if err := cw.Write([]string{t.ID, t.Title, string(t.Status), t.CreatedAt}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
