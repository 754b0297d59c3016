package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Storage.Backend != "file" {
		t.Errorf("expected Backend=file, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Key != "assessmentTrackerState" {
		t.Errorf("expected Key=assessmentTrackerState, got %s", cfg.Storage.Key)
	}
	if !cfg.Sync.AutoPush {
		t.Error("expected AutoPush=true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DirName, "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetSyncTimeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.GetSyncTimeout())
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("GRADEBOOK_STORAGE", "")
	t.Setenv("GRADEBOOK_SYNC_URL", "")

	path := DefaultPath(t.TempDir())

	cfg := DefaultConfig()
	cfg.Storage.Backend = "sqlite"
	cfg.Sync.Endpoint = "https://script.example.com/exec"
	cfg.Sync.Timeout = "5s"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Storage.Backend != "sqlite" {
		t.Errorf("expected Backend=sqlite, got %s", loaded.Storage.Backend)
	}
	if loaded.Sync.Endpoint != "https://script.example.com/exec" {
		t.Errorf("expected endpoint to round-trip, got %s", loaded.Sync.Endpoint)
	}
	if loaded.GetSyncTimeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", loaded.GetSyncTimeout())
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	path := DefaultPath(t.TempDir())
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("storage:\n  backend: redis\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := DefaultPath(t.TempDir())
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("storage: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDataDir(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DataDir("/ws"); got != filepath.Join("/ws", DirName) {
		t.Errorf("DataDir relative = %s", got)
	}
	cfg.Storage.Dir = "/var/lib/gradebook"
	if got := cfg.DataDir("/ws"); got != "/var/lib/gradebook" {
		t.Errorf("DataDir absolute = %s", got)
	}
}

func TestCatalogPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.CatalogPath("/ws"); got != "" {
		t.Errorf("unset catalog path should stay empty, got %s", got)
	}
	cfg.Curriculum.CatalogPath = "catalog.yaml"
	if got := cfg.CatalogPath("/ws"); got != filepath.Join("/ws", "catalog.yaml") {
		t.Errorf("CatalogPath = %s", got)
	}
}

func TestGetSyncTimeout_FallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.Timeout = "soon"
	if cfg.GetSyncTimeout() != 30*time.Second {
		t.Errorf("expected fallback of 30s, got %v", cfg.GetSyncTimeout())
	}
}

func TestLoggingConfig_ForLogger(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", DebugMode: true}
	got := lc.ForLogger(true)
	if !got.JSONFormat || !got.DebugMode || !got.Verbose || got.Level != "debug" {
		t.Errorf("unexpected logger config: %+v", got)
	}
}
