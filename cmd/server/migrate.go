package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/soaringjerry/moodtrack/internal/api"
	dbstore "github.com/soaringjerry/moodtrack/internal/db"
	"github.com/soaringjerry/moodtrack/internal/logger"
)

// MigrateIfNeeded copies a legacy memory snapshot into a fresh SQLite file.
// It does nothing once the SQLite file exists or when there is no snapshot.
func MigrateIfNeeded(ctx context.Context, snapshotPath, sqlitePath, migrationsDir string, log *logger.Logger) error {
	if sqlitePath == "" {
		return errors.New("sqlite path is required")
	}
	if _, err := os.Stat(sqlitePath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check sqlite file: %w", err)
	}
	if snapshotPath == "" {
		return nil
	}
	snap, err := api.LoadSnapshot(snapshotPath)
	if err != nil {
		return fmt.Errorf("load legacy snapshot: %w", err)
	}
	if len(snap) == 0 {
		return nil
	}

	log.Info("first run with sqlite, migrating legacy snapshot", "snapshot", snapshotPath, "keys", len(snap))
	dst, err := dbstore.OpenSQLite(ctx, sqlitePath, migrationsDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			log.Warn("close sqlite after migration", "error", cerr)
		}
	}()
	if err := dst.Import(ctx, snap); err != nil {
		_ = os.Remove(sqlitePath)
		return fmt.Errorf("copy data: %w", err)
	}
	log.Info("snapshot migration completed", "keys", len(snap))
	return nil
}
