package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizedraw/internal/config"
	"prizedraw/internal/models"
	"prizedraw/internal/services"
	"prizedraw/internal/storage/sqlite"
)

const testRoster = "Registration_Badge_ID,First_Name,Last_Name,Organization,Is_Member?\n" +
	"TEST1,Test,Member,QA,Yes\n" +
	"R1,Real,Member,Org,Yes\n"

func writeRoster(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "initial_registrants.csv")
	require.NoError(t, os.WriteFile(path, []byte(testRoster), 0o600))
	return path
}

func rosterStats(t *testing.T, dbPath string) models.RosterStats {
	t.Helper()
	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	stats, err := store.MemberStats(context.Background())
	require.NoError(t, err)
	return stats
}

func TestInitDB(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		DBPath:     filepath.Join(dir, "drawing.db"),
		InitialCSV: writeRoster(t, dir),
	}

	require.NoError(t, initDB(cfg))
	assert.Equal(t, 2, rosterStats(t, cfg.DBPath).Total)

	t.Run("skips import when roster is not empty", func(t *testing.T) {
		require.NoError(t, os.WriteFile(cfg.InitialCSV, []byte(testRoster+"R2,Another,Member,Org,Yes\n"), 0o600))
		require.NoError(t, initDB(cfg))
		assert.Equal(t, 2, rosterStats(t, cfg.DBPath).Total)
	})
}

func TestInitDBMissingRoster(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		DBPath:     filepath.Join(dir, "drawing.db"),
		InitialCSV: filepath.Join(dir, "missing.csv"),
	}
	require.NoError(t, initDB(cfg))
	assert.Zero(t, rosterStats(t, cfg.DBPath).Total)
}

func TestImportFileAndCleanTestData(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{DBPath: filepath.Join(dir, "drawing.db")}
	roster := writeRoster(t, dir)

	require.NoError(t, importFile(cfg, roster))
	require.NoError(t, importFile(cfg, roster))
	assert.Equal(t, 2, rosterStats(t, cfg.DBPath).Total)

	assert.Error(t, importFile(cfg, filepath.Join(dir, "nope.csv")))

	require.NoError(t, cleanTestData(cfg))
	assert.Equal(t, 1, rosterStats(t, cfg.DBPath).Total)

	require.NoError(t, withService(cfg, func(ctx context.Context, s *services.DrawingService) error {
		_, err := s.Draw(ctx)
		return err
	}))
}
