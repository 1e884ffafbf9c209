// Test wiring helpers: configuration and database instances backed by
// temporary directories.

package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/athulyan/docforge-go/internal/config"
	"github.com/athulyan/docforge-go/internal/db"
)

// NewTestConfig returns a config with fast settings and a temp workspace.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Port = 0
	cfg.WorkspacePath = t.TempDir()
	cfg.MaxConcurrency = 2
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Thumbnail.Width = 50
	cfg.Thumbnail.Height = 75
	cfg.Thumbnail.Quality = 75
	cfg.Cache.MaxEntries = 128
	cfg.Cache.OCRTTLMinutes = 60
	cfg.Cache.AITTLMinutes = 60
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelayMs = 1
	cfg.Storage.Backend = "local"
	cfg.Maintenance.IntervalMinutes = 60
	cfg.Maintenance.JobRetentionHours = 24
	return cfg
}

// SetupTestDB opens a migrated sqlite database in a temp directory and
// closes it when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("Failed to run test migrations: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}
