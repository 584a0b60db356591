package main

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/banshee-data/trafficsim/internal/config"
	"github.com/banshee-data/trafficsim/internal/db"
)

func TestFlagScenarioCollectsSetFlags(t *testing.T) {
	if err := flag.Set("density", "0.5"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if err := flag.Set("steps", "100"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	s := flagScenario()
	if s.Density == nil || *s.Density != 0.5 {
		t.Errorf("density override = %v, want 0.5", s.Density)
	}
	if s.Steps == nil || *s.Steps != 100 {
		t.Errorf("steps override = %v, want 100", s.Steps)
	}
	if s.RoadLength != nil {
		t.Errorf("road length should stay unset, got %d", *s.RoadLength)
	}

	cfg := s.Apply(config.DefaultConfig())
	if cfg.Density != 0.5 {
		t.Errorf("applied density = %f, want 0.5", cfg.Density)
	}
	if cfg.RoadLength != 200 {
		t.Errorf("applied road length = %d, want default 200", cfg.RoadLength)
	}
}

func TestOpenStoreWithMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := openStore(path, db.DefaultMigrationsDir)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()

	version, dirty, err := store.MigrateVersion(db.DefaultMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if dirty {
		t.Error("migration left the database dirty")
	}
	if version == 0 {
		t.Error("expected a non-zero schema version")
	}
}

func TestOpenStoreWithoutMigrationsDir(t *testing.T) {
	tmp := t.TempDir()
	store, err := openStore(filepath.Join(tmp, "runs.db"), filepath.Join(tmp, "missing-migrations"))
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()

	// The fallback schema is usable immediately.
	cfg := config.DefaultConfig()
	if _, err := store.InsertRun(cfg); err != nil {
		t.Errorf("InsertRun on fallback schema: %v", err)
	}
}
