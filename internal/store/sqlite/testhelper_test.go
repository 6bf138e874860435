package sqlite

import (
	"net/url"
	"testing"

	"github.com/narvanalabs/vaulty/pkg/logger"
)

// setupTestStore creates a migrated store on a named shared in-memory
// database. The name is derived from t.Name() so tests stay isolated.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := NewMemoryDB(url.PathEscape(t.Name()))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	st, err := Open(db, logger.Discard().Logger)
	if err != nil {
		_ = db.Close()
		t.Fatalf("open store: %v", err)
	}

	t.Cleanup(func() { _ = st.Close() })
	return st
}

func strPtr(s string) *string { return &s }
