package database

import (
	"database/sql"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	db := openMemory(t)

	m, err := GetMigrate(db)
	require.NoError(t, err)

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)

	for i := 1; i <= len(fnames); i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	t.Parallel()

	db := openMemory(t)

	require.NoError(t, MigrateUp(db, 0))
	require.NoError(t, MigrateUp(db, 0))

	version, dirty, err := GetVersion(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	for _, table := range []string{"users", "scheduler", "syncMode", "sync_cursors", "sync_status", "export_jobs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	require.NoError(t, MigrateDown(db, 0))
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'users'`).Scan(&count))
	assert.Zero(t, count)
}
