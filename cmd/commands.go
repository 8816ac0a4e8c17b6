package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/logger"

	"prizedraw/internal/config"
	"prizedraw/internal/services"
	"prizedraw/internal/storage/sqlite"
)

func withService(cfg config.Config, fn func(context.Context, *services.DrawingService) error) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(context.Background(), services.NewDrawingService(store))
}

// initDB creates the schema and loads the initial roster into an empty database.
func initDB(cfg config.Config) error {
	return withService(cfg, func(ctx context.Context, s *services.DrawingService) error {
		logger.Infof("Database ready at %s", cfg.DBPath)
		return importInitialRoster(ctx, s, cfg.InitialCSV)
	})
}

// importInitialRoster imports path only when the roster is empty. A missing
// file is not an error.
func importInitialRoster(ctx context.Context, s *services.DrawingService, path string) error {
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Total > 0 {
		logger.Infof("Roster already contains %d members. Skipping initial import.", stats.Total)
		return nil
	}
	if path == "" {
		return nil
	}
	err = importPath(ctx, s, path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Infof("Initial roster %s not found. Use the import page once the console is running.", path)
		return nil
	}
	return err
}

func importFile(cfg config.Config, path string) error {
	return withService(cfg, func(ctx context.Context, s *services.DrawingService) error {
		return importPath(ctx, s, path)
	})
}

func importPath(ctx context.Context, s *services.DrawingService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	summary, err := s.ImportMembers(ctx, f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Printf("Added %d members. Skipped %d existing, %d non-members, %d incomplete rows.\n",
		summary.Added, summary.SkippedExisting, summary.SkippedNonMember, len(summary.Malformed))
	return nil
}

func cleanTestData(cfg config.Config) error {
	return withService(cfg, func(ctx context.Context, s *services.DrawingService) error {
		result, err := s.PurgeTestData(ctx)
		if err != nil {
			return err
		}
		if result.MembersDeleted == 0 {
			fmt.Printf("No test members (badge id starting with %s) found.\n", services.TestDataPrefix)
			return nil
		}
		fmt.Printf("Deleted %d test members and %d associated audit entries.\n",
			result.MembersDeleted, result.AuditEntriesDeleted)
		return nil
	})
}
