// Package sqlite implements the todo store on a private in-memory SQLite database.
// Nothing is written to disk; the database disappears with the process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"todoboard/internal/todo"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ todo.Store = (*Store)(nil)

const schema = `CREATE TABLE IF NOT EXISTS todos (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store maps todos onto a single table. AUTOINCREMENT guarantees a rowid is
// never handed out twice, which gives the never-reused id counter.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens a fresh in-memory database.
func NewStore(opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create todos table: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create inserts a todo in the Todo column.
func (s *Store) Create(ctx context.Context, title string) (todo.Todo, error) {
	createdAt := todo.FormatTimestamp(s.now())
	res, err := s.db.ExecContext(ctx, `INSERT INTO todos(title, status, created_at) VALUES(?, ?, ?)`,
		title, string(todo.StatusTodo), createdAt)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return todo.Todo{}, fmt.Errorf("last insert id: %w", err)
	}
	return todo.Todo{
		ID:        strconv.FormatInt(seq, 10),
		Title:     title,
		Status:    todo.StatusTodo,
		CreatedAt: createdAt,
	}, nil
}

// All returns every todo ordered by insertion.
func (s *Store) All(ctx context.Context) ([]todo.Todo, error) {
	return s.query(ctx, `SELECT seq, title, status, created_at FROM todos ORDER BY seq`)
}

// ByStatus returns the todos carrying status ordered by insertion.
func (s *Store) ByStatus(ctx context.Context, status todo.Status) ([]todo.Todo, error) {
	return s.query(ctx, `SELECT seq, title, status, created_at FROM todos WHERE status = ? ORDER BY seq`, string(status))
}

// Get returns the todo stored under id.
func (s *Store) Get(ctx context.Context, id string) (todo.Todo, error) {
	seq, ok := parseID(id)
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	return scanOne(s.db.QueryRowContext(ctx, `SELECT seq, title, status, created_at FROM todos WHERE seq = ?`, seq))
}

// Update merges p onto the stored row inside a transaction.
func (s *Store) Update(ctx context.Context, id string, p todo.Patch) (_ todo.Todo, retErr error) {
	seq, ok := parseID(id)
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	existing, err := scanOne(tx.QueryRowContext(ctx, `SELECT seq, title, status, created_at FROM todos WHERE seq = ?`, seq))
	if err != nil {
		return todo.Todo{}, err
	}
	updated := p.Apply(existing)
	updated.ID = existing.ID
	if _, err := tx.ExecContext(ctx, `UPDATE todos SET title = ?, status = ? WHERE seq = ?`,
		updated.Title, string(updated.Status), seq); err != nil {
		return todo.Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return todo.Todo{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// Delete removes the row stored under id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	seq, ok := parseID(id)
	if !ok {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE seq = ?`, seq)
	if err != nil {
		return false, fmt.Errorf("delete todo %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Close releases the database; every todo is lost.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) query(ctx context.Context, query string, args ...any) ([]todo.Todo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []todo.Todo{}
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (todo.Todo, error) {
	var (
		seq    int64
		t      todo.Todo
		status string
	)
	if err := row.Scan(&seq, &t.Title, &status, &t.CreatedAt); err != nil {
		return todo.Todo{}, fmt.Errorf("scan todo: %w", err)
	}
	t.ID = strconv.FormatInt(seq, 10)
	t.Status = todo.Status(status)
	return t, nil
}

func scanOne(row *sql.Row) (todo.Todo, error) {
	t, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.Todo{}, todo.ErrNotFound
	}
	return t, err
}

// parseID accepts only canonical decimal ids so "01" never aliases "1".
func parseID(id string) (int64, bool) {
	seq, err := strconv.ParseInt(id, 10, 64)
	if err != nil || seq <= 0 || strconv.FormatInt(seq, 10) != id {
		return 0, false
	}
	return seq, true
}
