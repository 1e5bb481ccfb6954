package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/easeaico/project-pet/internal/settings"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "pet.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	raw, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected no stored settings, got %s", raw)
	}

	s := settings.Defaults()
	s.Pets.Primary.Name = "Dubu"
	if err := settings.Save(ctx, store, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Pets.Primary.Name = "Kongi"
	if err := settings.Save(ctx, store, s); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	loaded, err := settings.Load(ctx, store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Pets.Primary.Name != "Kongi" {
		t.Fatalf("expected latest save, got %q", loaded.Pets.Primary.Name)
	}
}

func TestSQLiteStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pet.db")
	a, err := OpenSQLite(ctx, path, "a")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := OpenSQLite(ctx, path, "b")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	if err := a.Save(ctx, []byte(`{"version":2}`)); err != nil {
		t.Fatalf("save a: %v", err)
	}
	raw, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load b: %v", err)
	}
	if raw != nil {
		t.Fatalf("key b saw key a's row: %s", raw)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mongo"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
