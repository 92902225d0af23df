package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestSchemaMigrationCreatesCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	var combined strings.Builder
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join("migrations", entry.Name()))
		require.NoError(t, err)
		combined.Write(b)
	}

	sql := combined.String()
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS funnel_entries")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS brevo_sync_outbox")
	assert.Contains(t, sql, "ux_funnel_entries_identity")
	assert.Contains(t, sql, "COALESCE(test_id, -1)")
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Funnel Columns!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_funnel_columns.sql"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "-- +goose Down")

	require.NoError(t, ValidateDir(dir))
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not_versioned.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}
