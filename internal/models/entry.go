package models

import (
	"fmt"
	"strings"
)

// VaultExt is the marker extension identifying encrypted artifacts.
const VaultExt = ".vault"

// Key info versions.
const (
	// KeyInfoVersionLegacy derives keys with the fixed application salt.
	// Kept only for archives created by older releases; two vaults sharing
	// a PIN also share a key in this mode.
	KeyInfoVersionLegacy = 0

	// KeyInfoVersionSalted derives keys with a random per-vault salt.
	KeyInfoVersionSalted = 1
)

// KeyInfo contains key derivation parameters for one vault directory.
type KeyInfo struct {
	Version int    `json:"version"`
	Salt    string `json:"salt,omitempty"` // Base64 encoded, empty for legacy
}

// Validate checks the key info structure.
func (k *KeyInfo) Validate() error {
	switch k.Version {
	case KeyInfoVersionLegacy:
		if k.Salt != "" {
			return fmt.Errorf("legacy key info must not carry a salt")
		}
	case KeyInfoVersionSalted:
		if k.Salt == "" {
			return fmt.Errorf("salted key info requires a salt")
		}
	default:
		return fmt.Errorf("unsupported key info version: %d", k.Version)
	}
	return nil
}

// FileMetadata is the per-file record persisted in the metadata store.
type FileMetadata struct {
	OriginalName string `json:"original_name"`
	OriginalExt  string `json:"original_ext"`
}

// VaultEntry describes one encrypted artifact in a vault directory.
// Entries are recomputed from directory state, never persisted.
type VaultEntry struct {
	StoredPath  string `json:"stored_path"`
	DisplayName string `json:"display_name"`
	SizeBytes   int64  `json:"size_bytes"`
}

// StoreResult reports a completed store operation.
type StoreResult struct {
	StoredPath string `json:"stored_path"`
	StoredName string `json:"stored_name"`
	SizeBytes  int64  `json:"size_bytes"`
}

// DisplayNameFallback derives a display name for an artifact that has no
// metadata entry by stripping the marker extension.
func DisplayNameFallback(storedName string) string {
	return strings.TrimSuffix(storedName, VaultExt)
}
