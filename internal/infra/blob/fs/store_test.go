package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"todoboard/internal/blob/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestPutGetHeadDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	info, err := s.Put(ctx, "exports/board.csv", bytes.NewReader([]byte("id,title\n")), core.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"format": "csv"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 9 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "exports/board.csv", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected exists error, got %v", err)
	}
	got, rc, err := s.Get(ctx, "exports/board.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "id,title\n" || got.ContentType != "text/csv" || got.Metadata["format"] != "csv" {
		t.Fatalf("unexpected get %q %+v", body, got)
	}
	head, err := s.Head(ctx, "exports/board.csv")
	if err != nil || head.ETag != info.ETag {
		t.Fatalf("head: %v %+v", err, head)
	}
	ok, err := s.Delete(ctx, "exports/board.csv")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "exports", "board.csv.meta")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected sidecar removed, got %v", err)
	}
	ok, err = s.Delete(ctx, "exports/board.csv")
	if err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestMissingKeys(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, _, err := s.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "/abs", "../escape", "a/../../b", "x.meta"} {
		if _, err := s.Put(ctx, key, bytes.NewReader(nil), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q rejected", key)
		}
	}
	if _, err := sanitizeKey("a..b/c"); err != nil {
		t.Fatalf("dots inside a segment are allowed: %v", err)
	}
}

func TestReservedKeysReadAsMissing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "exports/a.json", bytes.NewReader([]byte("{}")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	for _, key := range []string{"exports/a.json.meta", "missing.meta", "../escape", ""} {
		if _, _, err := s.Get(ctx, key); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("get %q: expected not found, got %v", key, err)
		}
		if _, err := s.Head(ctx, key); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("head %q: expected not found, got %v", key, err)
		}
		if ok, err := s.Delete(ctx, key); ok || err != nil {
			t.Fatalf("delete %q: got %v, %v", key, ok, err)
		}
	}
	if _, err := s.Head(ctx, "exports/a.json"); err != nil {
		t.Fatalf("sidecar survived reserved delete: %v", err)
	}
}

func TestListPrefixSorted(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"exports/b.json", "exports/a.json", "other/c.json"} {
		if _, err := s.Put(ctx, key, bytes.NewReader([]byte("{}")), core.PutOptions{ContentType: "application/json"}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := s.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "exports/a.json" || list[1].Key != "exports/b.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %v %d", err, len(all))
	}
	if _, err := s.PresignURL(ctx, "exports/a.json", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("fail") }

func TestPutReadErrorLeavesNothing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "broken", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected copy error")
	}
	list, err := s.List(ctx, "")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty store, got %v %+v", err, list)
	}
}

func TestCorruptSidecar(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Root(), "k.meta"), []byte("{"), 0o600); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := s.Head(ctx, "k"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := s.List(ctx, ""); err == nil {
		t.Fatalf("expected list decode error")
	}
}
