package storage

import (
	"os"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := "test_storage.db"
	defer os.Remove(dbPath)

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Missing key reads as absent, not as an error
	_, ok, err := store.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected missing key to be absent")
	}

	if err := store.Put("k1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, ok, err := store.Get("k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected k1 to exist")
	}
	if string(value) != `{"a":1}` {
		t.Errorf("Get returned %s, want {\"a\":1}", value)
	}

	// Overwrite replaces the previous value
	if err := store.Put("k1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	value, _, _ = store.Get("k1")
	if string(value) != `{"a":2}` {
		t.Errorf("Get after overwrite returned %s, want {\"a\":2}", value)
	}

	// Delete is a no-op when absent
	if err := store.Delete("never-existed"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
	if err := store.Delete("k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, ok, _ = store.Get("k1")
	if ok {
		t.Error("expected k1 to be gone after delete")
	}
}

func TestKeyRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := "test_keyrepo.db"
	defer os.Remove(dbPath)

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	repo := store.ForKey(KeyUserProfile)

	_, ok, err := repo.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("expected empty repository on first use")
	}

	if err := repo.Save([]byte(`{"level":"beginner"}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	snapshot, ok, err := repo.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || string(snapshot) != `{"level":"beginner"}` {
		t.Errorf("Load returned %q, ok=%v", snapshot, ok)
	}

	// Keys are independent: another key's repository sees nothing
	other := store.ForKey(KeySessionHistory)
	if _, ok, _ := other.Load(); ok {
		t.Error("expected session key to be independent of profile key")
	}

	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := repo.Load(); ok {
		t.Error("expected repository to be empty after Clear")
	}
}
