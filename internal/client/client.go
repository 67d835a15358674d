package client

import (
	"fmt"
	"path/filepath"

	"github.com/secretvault/filevault/internal/config"
	"github.com/secretvault/filevault/internal/crypto"
	"github.com/secretvault/filevault/internal/events"
	"github.com/secretvault/filevault/internal/metadata"
	"github.com/secretvault/filevault/internal/storage"
	"github.com/secretvault/filevault/internal/vault"
)

// Client provides the high-level API for vault operations.
type Client struct {
	Vault *vault.Manager
	Dirs  storage.Provider

	config *config.Config
	logger *events.Logger
	meta   metadata.Store
}

// New creates a client wired from configuration.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	var dirs *storage.AppDirs
	var err error
	if cfg.Storage.DataDir == "" {
		dirs, err = storage.NewAppDirs("filevault")
	} else {
		dirs, err = storage.NewAppDirsAt(cfg.Storage.DataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve app directories: %w", err)
	}

	tempDir := cfg.Storage.TempDir
	if tempDir == "" {
		tempDir = dirs.TempDir()
	}

	blobs := storage.NewLocalStore(logger)
	blobs.SetMaxFileSize(cfg.Storage.MaxFileSize)

	var meta metadata.Store
	switch cfg.Vault.MetadataBackend {
	case "sqlite":
		indexPath := cfg.Vault.IndexPath
		if indexPath == "" {
			indexPath = filepath.Join(dirs.Base(), "index.db")
		}
		meta, err = metadata.NewSQLiteStore(indexPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open metadata index: %w", err)
		}
	default:
		meta = metadata.NewJSONStore(logger)
	}

	manager := vault.NewManager(crypto.NewProvider(), meta, blobs, tempDir, logger)
	manager.SetLegacyKeyInfo(cfg.Vault.LegacyKeyInfo)

	return &Client{
		Vault:  manager,
		Dirs:   dirs,
		config: cfg,
		logger: logger,
		meta:   meta,
	}, nil
}

// VaultDir resolves the vault directory for a file category.
func (c *Client) VaultDir(category storage.Category) string {
	return c.Dirs.VaultDir(category)
}

// Config returns the active configuration.
func (c *Client) Config() *config.Config {
	return c.config
}

// Close releases resources.
func (c *Client) Close() error {
	return c.meta.Close()
}
