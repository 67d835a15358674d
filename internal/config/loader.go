package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty configPath searches the
// default locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "FILEVAULT",
	}
}

// Load reads configuration, applying file values then environment
// overrides on top of the defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("storage.temp_dir", defaults.Storage.TempDir)
	v.SetDefault("storage.max_file_size", defaults.Storage.MaxFileSize)
	v.SetDefault("vault.metadata_backend", defaults.Vault.MetadataBackend)
	v.SetDefault("vault.index_path", defaults.Vault.IndexPath)
	v.SetDefault("vault.legacy_key_info", defaults.Vault.LegacyKeyInfo)
	v.SetDefault("vault.temp_max_age", defaults.Vault.TempMaxAge)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", defaults.Log.File)

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
	} else {
		v.SetConfigName("filevault")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "filevault"))
			v.AddConfigPath(filepath.Join(homeDir, ".filevault"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if l.configPath != "" {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
		// No config file in the default locations is fine.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
