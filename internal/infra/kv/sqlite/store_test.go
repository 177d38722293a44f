package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"countingsheep/internal/persistence"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := New(ctx, path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.Read(ctx, persistence.KeyV4); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Write(ctx, persistence.KeyV4, []byte(`{"coins":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Write(ctx, persistence.KeyV4, []byte(`{"coins":2}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	reloaded, err := New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	got, err := reloaded.Read(ctx, persistence.KeyV4)
	if err != nil || string(got) != `{"coins":2}` {
		t.Fatalf("read after reopen: %q %v", got, err)
	}
	var rows int
	if err := reloaded.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single row after upsert, got %d", rows)
	}
	if reloaded.Driver() != persistence.DriverSQLite || reloaded.Path() != path {
		t.Fatalf("unexpected metadata")
	}
}

func TestSQLiteStoreClosedHandleErrors(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	_ = store.Close()
	if _, err := store.Read(ctx, "k"); err == nil || errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected read error on closed db, got %v", err)
	}
	if err := store.Write(ctx, "k", []byte("x")); err == nil {
		t.Fatalf("expected write error on closed db")
	}
}
