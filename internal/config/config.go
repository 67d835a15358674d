package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Storage paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Vault behavior
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// StorageConfig for local file paths.
type StorageConfig struct {
	// DataDir is the base directory for all vault data. Empty means the
	// platform-private application directory is used.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// TempDir holds decrypted files handed out for viewing.
	TempDir string `json:"temp_dir" mapstructure:"temp_dir"`

	// MaxFileSize caps the size of a single stored file in bytes.
	MaxFileSize int64 `json:"max_file_size" mapstructure:"max_file_size"`
}

// VaultConfig for encryption and metadata behavior.
type VaultConfig struct {
	// MetadataBackend selects the metadata store: "json" (per-directory
	// file_info.json, the compatibility format) or "sqlite" (central index).
	MetadataBackend string `json:"metadata_backend" mapstructure:"metadata_backend"`

	// IndexPath locates the SQLite index when the sqlite backend is used.
	// Empty defaults to <data_dir>/index.db.
	IndexPath string `json:"index_path" mapstructure:"index_path"`

	// LegacyKeyInfo forces the fixed-salt derivation for newly created
	// vaults, for compatibility with archives from older releases.
	LegacyKeyInfo bool `json:"legacy_key_info" mapstructure:"legacy_key_info"`

	// TempMaxAge is the default age cutoff for the temp sweep.
	TempMaxAge time.Duration `json:"temp_max_age" mapstructure:"temp_max_age"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stderr)
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:     "",
			TempDir:     "",
			MaxFileSize: 100 * 1024 * 1024, // 100MB
		},
		Vault: VaultConfig{
			MetadataBackend: "json",
			TempMaxAge:      24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage.max_file_size must be positive")
	}

	validBackends := map[string]bool{"json": true, "sqlite": true}
	if !validBackends[c.Vault.MetadataBackend] {
		return fmt.Errorf("invalid metadata backend: %s", c.Vault.MetadataBackend)
	}

	if c.Vault.TempMaxAge < 0 {
		return errors.New("vault.temp_max_age must not be negative")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.Storage.TempDir,
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
