package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStorage(t *testing.T, path string) *Storage {
	t.Helper()
	storage, err := Open(path)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			t.Errorf("close storage: %v", err)
		}
	})
	return storage
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := openTestStorage(t, filepath.Join(t.TempDir(), "state.db"))

	if _, ok, err := storage.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%t err=%v", ok, err)
	}

	if err := storage.Set(ctx, "session", `3|{"count":1}`); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	value, ok, err := storage.Get(ctx, "session")
	if err != nil || !ok || value != `3|{"count":1}` {
		t.Fatalf("expected stored record, got (%q, %t, %v)", value, ok, err)
	}

	// Set overwrites.
	if err := storage.Set(ctx, "session", `3|{"count":2}`); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	value, _, _ = storage.Get(ctx, "session")
	if value != `3|{"count":2}` {
		t.Fatalf("expected overwritten record, got %q", value)
	}

	if err := storage.Remove(ctx, "session"); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if _, ok, _ := storage.Get(ctx, "session"); ok {
		t.Fatalf("expected record removed")
	}
}

func TestStorageKeys(t *testing.T) {
	ctx := context.Background()
	storage := openTestStorage(t, filepath.Join(t.TempDir(), "state.db"))

	for _, key := range []string{"b", "a", "c"} {
		if err := storage.Set(ctx, key, "1|{}"); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}
	}

	keys, err := storage.Keys(ctx)
	if err != nil {
		t.Fatalf("unexpected keys error: %v", err)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}

func TestStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	if err := first.Set(ctx, "session", `3|{"count":9}`); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close storage: %v", err)
	}

	second := openTestStorage(t, path)
	value, ok, err := second.Get(ctx, "session")
	if err != nil || !ok || value != `3|{"count":9}` {
		t.Fatalf("expected record to survive reopen, got (%q, %t, %v)", value, ok, err)
	}
}
