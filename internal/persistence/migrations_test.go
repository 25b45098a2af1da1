package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadMigrations_SortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_tickets.sql", "CREATE TABLE tickets ();")
	writeFile(t, dir, "0001_users.sql", "CREATE TABLE users ();")
	writeFile(t, dir, "README.md", "not a migration")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_nested.sql"), 0o700))

	migrations, err := loadMigrations(dir)

	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001_users", migrations[0].Version)
	assert.Equal(t, "0002_tickets", migrations[1].Version)
	assert.Equal(t, "CREATE TABLE users ();", migrations[0].SQL)
	assert.Len(t, migrations[0].Checksum, 64)
	assert.NotEqual(t, migrations[0].Checksum, migrations[1].Checksum)
}

func TestLoadMigrations_ChecksumTracksContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_users.sql", "CREATE TABLE users ();")
	before, err := loadMigrations(dir)
	require.NoError(t, err)

	writeFile(t, dir, "0001_users.sql", "CREATE TABLE users (id uuid);")
	after, err := loadMigrations(dir)
	require.NoError(t, err)

	assert.NotEqual(t, before[0].Checksum, after[0].Checksum)
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := loadMigrations(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestPendingMigrations(t *testing.T) {
	all := []migration{{Version: "0001_users"}, {Version: "0002_tickets"}, {Version: "0003_comments"}}

	pending := pendingMigrations(all, map[string]string{"0001_users": "x", "0003_comments": "y"})

	require.Len(t, pending, 1)
	assert.Equal(t, "0002_tickets", pending[0].Version)
	assert.Len(t, pendingMigrations(all, nil), 3)
}
