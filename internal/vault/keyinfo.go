package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/secretvault/filevault/internal/crypto"
	"github.com/secretvault/filevault/internal/models"
)

// KeyInfoFileName holds the per-vault key derivation parameters, next to
// the metadata file. Vaults written by older releases have no such file;
// their absence selects the legacy fixed-salt derivation.
const KeyInfoFileName = "key_info.json"

// loadKeyInfo reads the key info for a vault directory. A missing file
// means the vault predates per-vault salts.
func (m *Manager) loadKeyInfo(vaultDir string) (models.KeyInfo, error) {
	path := filepath.Join(vaultDir, KeyInfoFileName)

	data, err := m.blobs.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return crypto.LegacyKeyInfo(), nil
		}
		return models.KeyInfo{}, fmt.Errorf("read key info: %w", err)
	}

	var info models.KeyInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Guessing a derivation mode here would silently produce wrong
		// keys, so corruption is surfaced.
		return models.KeyInfo{}, fmt.Errorf("parse key info: %w", err)
	}

	if err := info.Validate(); err != nil {
		return models.KeyInfo{}, fmt.Errorf("invalid key info: %w", err)
	}

	return info, nil
}

// loadOrCreateKeyInfo returns the vault's key info, generating and
// persisting a salted one for brand-new vault directories. A directory
// that already holds artifacts but no key info file stays legacy: minting
// a salt there would orphan the existing ciphertexts.
func (m *Manager) loadOrCreateKeyInfo(ctx context.Context, vaultDir string) (models.KeyInfo, error) {
	logger := m.opLogger(ctx)
	path := filepath.Join(vaultDir, KeyInfoFileName)

	exists, err := m.blobs.Exists(path)
	if err != nil {
		return models.KeyInfo{}, fmt.Errorf("check key info: %w", err)
	}
	if exists {
		return m.loadKeyInfo(vaultDir)
	}

	if m.legacyKeys {
		return crypto.LegacyKeyInfo(), nil
	}

	hasArtifacts, err := m.hasVaultArtifacts(vaultDir)
	if err != nil {
		return models.KeyInfo{}, err
	}
	if hasArtifacts {
		logger.WithField("vault_dir", vaultDir).Debug("Existing vault without key info, staying legacy")
		return crypto.LegacyKeyInfo(), nil
	}

	info, err := crypto.NewSaltedKeyInfo()
	if err != nil {
		return models.KeyInfo{}, err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return models.KeyInfo{}, fmt.Errorf("marshal key info: %w", err)
	}

	if err := m.blobs.Write(path, data, 0600); err != nil {
		return models.KeyInfo{}, fmt.Errorf("write key info: %w", err)
	}

	logger.WithField("vault_dir", vaultDir).Info("Created per-vault key info")
	return info, nil
}

func (m *Manager) hasVaultArtifacts(vaultDir string) (bool, error) {
	infos, err := m.blobs.ListDir(vaultDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("scan vault directory: %w", err)
	}

	for _, info := range infos {
		if !info.IsDir && strings.HasSuffix(info.Path, models.VaultExt) {
			return true, nil
		}
	}
	return false, nil
}
