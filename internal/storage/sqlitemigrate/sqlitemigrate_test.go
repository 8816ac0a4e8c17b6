package sqlitemigrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	migrations := fstest.MapFS{
		"002_second.sql": {Data: []byte("-- +migrate Up\nALTER TABLE widgets ADD COLUMN size INTEGER NOT NULL DEFAULT 0;\n-- +migrate Down\nSELECT 1;\n")},
		"001_first.sql":  {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"README.md":      {Data: []byte("not a migration")},
	}

	t.Run("applies files in order", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, Apply(ctx, db, migrations, ""))

		_, err := db.ExecContext(ctx, "INSERT INTO widgets (name, size) VALUES ('a', 3)")
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, Apply(ctx, db, migrations, "."))
		require.NoError(t, Apply(ctx, db, migrations, "."))
	})

	t.Run("nil db", func(t *testing.T) {
		assert.Error(t, Apply(ctx, nil, migrations, ""))
	})

	t.Run("broken migration is not recorded", func(t *testing.T) {
		db := openTestDB(t)
		broken := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE (")}}
		require.Error(t, Apply(ctx, db, broken, ""))

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Zero(t, count)
	})
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no markers", content: "SELECT 1;", want: "SELECT 1;"},
		{name: "up only", content: "-- +migrate Up\nSELECT 1;", want: "\nSELECT 1;"},
		{name: "up and down", content: "-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;", want: "\nSELECT 1;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpSection(tt.content))
		})
	}
}
