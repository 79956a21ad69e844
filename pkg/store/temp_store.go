package store

import (
	"path/filepath"
	"testing"
)

// MustTempStore returns a Store backed by a file in a temporary directory. The
// Store is closed when the test finishes.
func MustTempStore(t testing.TB) DBStore {
	st, err := NewStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("create temp store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}
