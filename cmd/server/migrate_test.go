package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soaringjerry/moodtrack/internal/api"
	dbstore "github.com/soaringjerry/moodtrack/internal/db"
	"github.com/soaringjerry/moodtrack/internal/logger"
)

func TestMigrateIfNeededCopiesSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "legacy.json")
	legacy, err := api.NewMemoryStoreFromPath(snapPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = legacy.Put(ctx, "participant:p1:studyData", []byte(`{"emaEntries":[]}`))
	_ = legacy.Put(ctx, "participant:p1:mh_agent_history", []byte(`[]`))

	dbPath := filepath.Join(dir, "db", "moodtrack.db")
	if err := MigrateIfNeeded(ctx, snapPath, dbPath, "", logger.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := dbstore.OpenSQLite(ctx, dbPath, "")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	keys, err := store.Keys(ctx, "participant:p1:")
	if err != nil || len(keys) != 2 {
		t.Fatalf("keys = %v, %v", keys, err)
	}

	// a second run leaves the existing database alone
	_ = legacy.Put(ctx, "participant:p2:studyData", []byte(`{}`))
	if err := MigrateIfNeeded(ctx, snapPath, dbPath, "", logger.Nop()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "participant:p2:studyData"); ok {
		t.Fatalf("migration ran twice")
	}
}

func TestMigrateIfNeededWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "moodtrack.db")
	if err := MigrateIfNeeded(context.Background(), filepath.Join(dir, "none.json"), dbPath, "", logger.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("sqlite file created without snapshot")
	}
}
