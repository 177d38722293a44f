package kv

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"countingsheep/internal/config"
	"countingsheep/internal/infra/kv/postgres"
	"countingsheep/internal/infra/kv/postgres/testutil"
	"countingsheep/internal/persistence"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, _ := testutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)

	cases := []config.Storage{
		{Driver: "memory"},
		{Driver: "fs", FS: config.FS{Root: filepath.Join(dir, "fs")}},
		{Driver: "sqlite", SQLite: config.SQLite{Path: filepath.Join(dir, "state.db")}},
		{Driver: "postgres"},
		{Driver: "s3", S3: config.S3{Bucket: "flock", Region: "eu-west-1"}},
		{Driver: "badger", Badger: config.Badger{InMemory: true}},
	}
	for _, cfg := range cases {
		t.Run(cfg.Driver, func(t *testing.T) {
			store, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("open %s: %v", cfg.Driver, err)
			}
			t.Cleanup(func() { _ = store.Close() })
			if string(store.Driver()) != cfg.Driver {
				t.Fatalf("expected driver %s, got %s", cfg.Driver, store.Driver())
			}
		})
	}
}

func TestOpenLocalDriversRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, cfg := range []config.Storage{
		{Driver: "memory"},
		{Driver: "fs", FS: config.FS{Root: filepath.Join(dir, "fs")}},
		{Driver: "sqlite", SQLite: config.SQLite{Path: filepath.Join(dir, "rt.db")}},
		{Driver: "badger", Badger: config.Badger{InMemory: true}},
	} {
		store, err := Open(ctx, cfg, nil)
		if err != nil {
			t.Fatalf("open %s: %v", cfg.Driver, err)
		}
		if err := store.Write(ctx, persistence.KeyV4, []byte(`{"ok":true}`)); err != nil {
			t.Fatalf("%s write: %v", cfg.Driver, err)
		}
		got, err := store.Read(ctx, persistence.KeyV4)
		if err != nil || string(got) != `{"ok":true}` {
			t.Fatalf("%s read: %q %v", cfg.Driver, got, err)
		}
		_ = store.Close()
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Storage{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
