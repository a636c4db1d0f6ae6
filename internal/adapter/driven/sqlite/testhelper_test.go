package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as DSN query parameters.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	db, err := openDB(context.Background(), dsn, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// mustExec runs a seed statement on the writer.
func mustExec(t *testing.T, db *DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Writer.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("seed %q: %v", query, err)
	}
}

func seedUser(t *testing.T, db *DB, id int64, login string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO users (id, login, name) VALUES (?, ?, ?)`, id, login, "")
}

func seedRepository(t *testing.T, db *DB, id int64, nameWithOwner string) {
	t.Helper()
	name := nameWithOwner
	for i := len(nameWithOwner) - 1; i >= 0; i-- {
		if nameWithOwner[i] == '/' {
			name = nameWithOwner[i+1:]
			break
		}
	}
	mustExec(t, db, `INSERT INTO repositories (id, name, name_with_owner) VALUES (?, ?, ?)`, id, name, nameWithOwner)
}
