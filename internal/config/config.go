package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DirName is the per-workspace directory holding config, data and logs.
const DirName = ".gradebook"

// Config holds all gradebook configuration.
type Config struct {
	// Storage backend for the state document
	Storage StorageConfig `yaml:"storage"`

	// Remote spreadsheet mirror
	Sync SyncConfig `yaml:"sync"`

	// Curriculum catalog source
	Curriculum CurriculumConfig `yaml:"curriculum"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the persistence adapter.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, sqlite, memory
	Dir     string `yaml:"dir"`     // relative to the workspace unless absolute
	Key     string `yaml:"key"`     // storage key of the state document
}

// SyncConfig configures the remote sync adapter.
type SyncConfig struct {
	// Endpoint seeds googleSettings.scriptUrl on first run when the document has none.
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`
	// AutoPush pushes after every data mutation when an endpoint is configured.
	AutoPush bool `yaml:"auto_push"`
}

// CurriculumConfig configures the descriptor catalog.
type CurriculumConfig struct {
	CatalogPath string `yaml:"catalog_path"` // empty = embedded catalog
}

// ValidBackends lists all supported storage backends.
var ValidBackends = []string{"file", "sqlite", "memory"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
			Dir:     DirName,
			Key:     "assessmentTrackerState",
		},
		Sync: SyncConfig{
			Timeout:  "30s",
			AutoPush: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file location for a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, DirName, "config.yaml")
}

// Load loads configuration from a YAML file.
// A .env file next to the workspace directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	envPath := filepath.Join(filepath.Dir(filepath.Dir(path)), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GRADEBOOK_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("GRADEBOOK_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("GRADEBOOK_SYNC_URL"); v != "" {
		c.Sync.Endpoint = v
	}
	if v := os.Getenv("GRADEBOOK_SYNC_TIMEOUT"); v != "" {
		c.Sync.Timeout = v
	}
	if v := os.Getenv("GRADEBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GRADEBOOK_CATALOG"); v != "" {
		c.Curriculum.CatalogPath = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	valid := false
	for _, b := range ValidBackends {
		if c.Storage.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid storage backend: %s (valid: %v)", c.Storage.Backend, ValidBackends)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if c.Sync.Timeout != "" {
		if _, err := time.ParseDuration(c.Sync.Timeout); err != nil {
			return fmt.Errorf("invalid sync timeout %q: %w", c.Sync.Timeout, err)
		}
	}
	return nil
}

// GetSyncTimeout returns the sync timeout as a duration.
func (c *Config) GetSyncTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sync.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// DataDir resolves the storage directory against the workspace.
func (c *Config) DataDir(workspace string) string {
	if filepath.IsAbs(c.Storage.Dir) {
		return c.Storage.Dir
	}
	return filepath.Join(workspace, c.Storage.Dir)
}

// CatalogPath resolves the catalog override against the workspace ("" when unset).
func (c *Config) CatalogPath(workspace string) string {
	p := c.Curriculum.CatalogPath
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

// FindWorkspaceRoot walks up from the current directory looking for a .gradebook directory.
// If not found, returns the current working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, DirName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}
