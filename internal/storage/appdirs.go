package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Category names one logical vault of files.
type Category string

const (
	CategoryPhotos    Category = "photos"
	CategoryVideos    Category = "videos"
	CategoryDocuments Category = "documents"
	CategoryAudio     Category = "audio"
)

// Categories lists the known vault categories.
var Categories = []Category{
	CategoryPhotos,
	CategoryVideos,
	CategoryDocuments,
	CategoryAudio,
}

// Provider supplies the directory layout for vault data. The vault core
// depends on this capability interface rather than probing a host object.
type Provider interface {
	// VaultDir returns the vault directory for a file category.
	VaultDir(category Category) string

	// RecycleDir returns the directory holding soft-deleted artifacts.
	RecycleDir() string

	// TempDir returns the directory for decrypted-for-viewing files.
	TempDir() string
}

// AppDirs implements Provider over an app-private base directory.
type AppDirs struct {
	base string
}

// NewAppDirs creates a provider rooted at the platform-appropriate private
// directory for the application, creating the base if needed.
func NewAppDirs(appName string) (*AppDirs, error) {
	base, err := defaultBaseDir(appName)
	if err != nil {
		return nil, err
	}
	return NewAppDirsAt(base)
}

// NewAppDirsAt creates a provider rooted at an explicit base directory.
func NewAppDirsAt(base string) (*AppDirs, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &AppDirs{base: abs}, nil
}

// Base returns the base directory.
func (d *AppDirs) Base() string {
	return d.base
}

// VaultDir returns the vault directory for a file category.
func (d *AppDirs) VaultDir(category Category) string {
	return filepath.Join(d.base, "vault_data", string(category))
}

// RecycleDir returns the directory holding soft-deleted artifacts.
func (d *AppDirs) RecycleDir() string {
	return filepath.Join(d.base, "vault_recycle")
}

// TempDir returns the directory for decrypted-for-viewing files.
func (d *AppDirs) TempDir() string {
	return filepath.Join(d.base, "temp")
}

// defaultBaseDir resolves the platform-private application directory.
func defaultBaseDir(appName string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", appName), nil
		}
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, appName), nil
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", appName), nil
		}
	}

	// Last resort: hidden directory under the working directory.
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(wd, "."+appName), nil
}
