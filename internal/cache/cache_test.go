package cache

import (
	"context"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(DefaultConfig(filepath.Join(dir, "cache.db")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	entry := Entry{
		ModelID:     "independence-dirichlet",
		Params:      []float64{1, 1, 1, 1, 1},
		Checksum:    "abc123",
		LogMarginal: []float64{-1.1, -2.2, -3.3},
	}
	key := Key(entry.ModelID, entry.Params, entry.Checksum)
	if err := store.Put(key, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected cache hit after Put")
	}
	if got.ModelID != entry.ModelID || got.Checksum != entry.Checksum {
		t.Fatalf("got %+v, want %+v", got, entry)
	}
	if len(got.LogMarginal) != 3 || got.LogMarginal[1] != -2.2 {
		t.Fatalf("LogMarginal = %v, want %v", got.LogMarginal, entry.LogMarginal)
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	store, err := New(DefaultConfig(filepath.Join(dir, "cache.db")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected cache miss for nonexistent key")
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("independence-dirichlet", []float64{1, 2, 3}, "checksum")
	b := Key("independence-dirichlet", []float64{1, 2, 3}, "checksum")
	if a != b {
		t.Fatalf("Key not deterministic: %s vs %s", a, b)
	}
	c := Key("independence-dirichlet", []float64{1, 2, 4}, "checksum")
	if a == c {
		t.Fatalf("Key collided across different params")
	}
}
