// Package dbtest opens migrated throwaway SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"crm_backend/platform/db"

	"github.com/stretchr/testify/require"
)

type fileURL string

func (u fileURL) GetDatabaseURL() string { return string(u) }

// Open creates a fresh database file under t.TempDir, applies all
// migrations and closes it when the test ends.
func Open(t testing.TB) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crm_test.db")
	conn, err := db.Open(context.Background(), fileURL("file:"+path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}
