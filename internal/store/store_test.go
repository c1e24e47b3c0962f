package store

import (
	"bytes"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetAbsentKey(t *testing.T) {
	db := openTestDB(t)
	value, err := db.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != nil {
		t.Errorf("got %q, want nil for absent key", value)
	}
}

func TestPutGetDelete(t *testing.T) {
	db := openTestDB(t)

	if err := db.Put(CartKey, []byte(`[{"subjectId":"tour-1"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, err := db.Get(CartKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(value, []byte(`[{"subjectId":"tour-1"}]`)) {
		t.Errorf("got %q", value)
	}

	// Second put replaces
	if err := db.Put(CartKey, []byte(`[]`)); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	value, _ = db.Get(CartKey)
	if !bytes.Equal(value, []byte(`[]`)) {
		t.Errorf("got %q after replace, want []", value)
	}

	if err := db.Delete(CartKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	value, _ = db.Get(CartKey)
	if value != nil {
		t.Errorf("got %q after delete, want nil", value)
	}

	// Deleting again is fine
	if err := db.Delete(CartKey); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	db := openTestDB(t)

	db.Put(CartKey, []byte(`cart-data`))
	db.Put(FavoritesKey, []byte(`fav-data`))
	db.Delete(CartKey)

	value, err := db.Get(FavoritesKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(value, []byte(`fav-data`)) {
		t.Errorf("favorites value affected by cart delete: %q", value)
	}
}
