package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/secretvault/filevault/internal/crypto"
	"github.com/secretvault/filevault/internal/events"
	"github.com/secretvault/filevault/internal/metadata"
	"github.com/secretvault/filevault/internal/models"
	"github.com/secretvault/filevault/internal/storage"
)

// Manager orchestrates encrypt-and-store, decrypt-for-viewing, listing
// and removal of vault artifacts. All operations are synchronous and
// blocking; callers on an interactive surface offload them.
type Manager struct {
	crypto  crypto.Provider
	meta    metadata.Store
	blobs   storage.BlobStore
	logger  *events.Logger
	tempDir string

	// legacyKeys forces fixed-salt key infos for newly created vaults.
	legacyKeys bool
}

// NewManager creates a vault file manager.
func NewManager(provider crypto.Provider, meta metadata.Store, blobs storage.BlobStore, tempDir string, logger *events.Logger) *Manager {
	return &Manager{
		crypto:  provider,
		meta:    meta,
		blobs:   blobs,
		logger:  logger.WithField("service", "vault"),
		tempDir: tempDir,
	}
}

// SetLegacyKeyInfo forces the fixed-salt derivation for vaults created
// after this call. Existing vaults keep whatever key info they carry.
func (m *Manager) SetLegacyKeyInfo(legacy bool) {
	m.legacyKeys = legacy
}

// opLogger prefers a request-scoped logger carried on the context over
// the manager's own.
func (m *Manager) opLogger(ctx context.Context) *events.Logger {
	if logger, ok := events.LoggerFromContext(ctx); ok {
		return logger.WithField("service", "vault")
	}
	return m.logger
}

// Store encrypts sourcePath into vaultDir under a collision-free stored
// name and records the original filename in the metadata store. Metadata
// is committed only after the encrypted artifact is on disk.
func (m *Manager) Store(ctx context.Context, sourcePath, vaultDir, filename, pin string) (*models.StoreResult, error) {
	logger := m.opLogger(ctx).WithFields(map[string]interface{}{
		"source":    sourcePath,
		"vault_dir": vaultDir,
	})
	logger.Debug("Storing file")

	if err := m.blobs.EnsureDir(vaultDir); err != nil {
		return nil, models.NewVaultError(models.ErrCodeStorage, "store", vaultDir, err)
	}

	storedName, err := m.resolveStoredName(vaultDir, filename)
	if err != nil {
		return nil, models.NewVaultError(models.ErrCodeStorage, "store", vaultDir, err)
	}
	storedPath := filepath.Join(vaultDir, storedName)

	keyInfo, err := m.loadOrCreateKeyInfo(ctx, vaultDir)
	if err != nil {
		return nil, models.NewVaultError(models.ErrCodeMetadata, "store", vaultDir, err)
	}

	key, err := m.crypto.DeriveKey(pin, keyInfo)
	if err != nil {
		return nil, models.NewVaultError(models.ErrCodeKeyDerivation, "store", sourcePath, err)
	}

	plaintext, err := m.blobs.Read(sourcePath)
	if err != nil {
		return nil, models.NewVaultError(models.ErrCodeStorage, "store", sourcePath, err)
	}

	ciphertext, err := m.crypto.EncryptData(plaintext, key)
	if err != nil {
		return nil, models.NewVaultError(models.ErrCodeEncryption, "store", sourcePath, err)
	}

	if err := m.blobs.Write(storedPath, ciphertext, 0600); err != nil {
		return nil, models.NewVaultError(models.ErrCodeStorage, "store", storedPath, err)
	}

	meta := models.FileMetadata{
		OriginalName: filename,
		OriginalExt:  filepath.Ext(filename),
	}
	if err := m.meta.Upsert(vaultDir, storedName, meta); err != nil {
		// The artifact is on disk and listable via the fallback name, so
		// it is kept; the caller still learns the store was incomplete.
		logger.WithError(err).Warn("Artifact stored but metadata update failed")
		return nil, models.NewVaultError(models.ErrCodeMetadata, "store", storedPath, err)
	}

	logger.WithField("stored_name", storedName).Info("File stored")

	return &models.StoreResult{
		StoredPath: storedPath,
		StoredName: storedName,
		SizeBytes:  int64(len(ciphertext)),
	}, nil
}

// RetrieveForViewing decrypts storedPath into a uniquely named file under
// the manager's temp directory and returns its path. The caller owns the
// temp file; SweepTemp reclaims leftovers.
func (m *Manager) RetrieveForViewing(ctx context.Context, storedPath, pin string) (string, error) {
	logger := m.opLogger(ctx)
	vaultDir := filepath.Dir(storedPath)
	storedName := filepath.Base(storedPath)

	originalName := m.meta.LookupOriginalName(vaultDir, storedName)

	keyInfo, err := m.loadKeyInfo(vaultDir)
	if err != nil {
		return "", models.NewVaultError(models.ErrCodeMetadata, "retrieve", vaultDir, err)
	}

	key, err := m.crypto.DeriveKey(pin, keyInfo)
	if err != nil {
		return "", models.NewVaultError(models.ErrCodeKeyDerivation, "retrieve", storedPath, err)
	}

	ciphertext, err := m.blobs.Read(storedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = models.ErrFileNotFound
		}
		return "", models.NewVaultError(models.ErrCodeStorage, "retrieve", storedPath, err)
	}

	plaintext, err := m.crypto.DecryptData(ciphertext, key)
	if err != nil {
		return "", &models.DecryptError{
			Path:   storedPath,
			Reason: "wrong PIN or corrupted file",
			Err:    err,
		}
	}

	if err := m.blobs.EnsureDir(m.tempDir); err != nil {
		return "", models.NewVaultError(models.ErrCodeStorage, "retrieve", m.tempDir, err)
	}

	// Unique prefix so two views of same-named files cannot clobber
	// each other.
	tempName := fmt.Sprintf("%s_%s", uuid.NewString()[:8], originalName)
	tempPath := filepath.Join(m.tempDir, tempName)

	if err := m.blobs.Write(tempPath, plaintext, 0600); err != nil {
		return "", models.NewVaultError(models.ErrCodeStorage, "retrieve", tempPath, err)
	}

	logger.WithFields(map[string]interface{}{
		"stored_name": storedName,
		"temp_path":   tempPath,
	}).Debug("File decrypted for viewing")

	return tempPath, nil
}

// List enumerates the encrypted artifacts in vaultDir. A missing
// directory yields an empty listing; a bad entry is skipped, never fatal.
func (m *Manager) List(ctx context.Context, vaultDir string) ([]models.VaultEntry, error) {
	logger := m.opLogger(ctx)

	infos, err := m.blobs.ListDir(vaultDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, models.NewVaultError(models.ErrCodeStorage, "list", vaultDir, err)
	}

	mapping, err := m.meta.Load(vaultDir)
	if err != nil {
		// Load is tolerant by contract; a failure here still must not
		// kill the listing.
		logger.WithError(err).Warn("Metadata load failed, using fallback names")
		mapping = make(map[string]models.FileMetadata)
	}

	var entries []models.VaultEntry
	skipped := 0
	for _, info := range infos {
		if info.IsDir || !strings.HasSuffix(info.Path, models.VaultExt) {
			continue
		}

		// Entries whose stat failed carry a negative size: the file
		// vanished between the directory read and the stat.
		if info.Size < 0 {
			skipped++
			continue
		}

		storedName := filepath.Base(info.Path)
		displayName := models.DisplayNameFallback(storedName)
		if meta, ok := mapping[storedName]; ok && meta.OriginalName != "" {
			displayName = meta.OriginalName
		}

		entries = append(entries, models.VaultEntry{
			StoredPath:  info.Path,
			DisplayName: displayName,
			SizeBytes:   info.Size,
		})
	}

	if skipped > 0 {
		logger.WithFields(map[string]interface{}{
			"vault_dir": vaultDir,
			"skipped":   skipped,
		}).Warn("Skipped unreadable vault entries")
	}

	return entries, nil
}

// Remove deletes an encrypted artifact and its metadata entry.
func (m *Manager) Remove(ctx context.Context, storedPath string) error {
	logger := m.opLogger(ctx)
	vaultDir := filepath.Dir(storedPath)
	storedName := filepath.Base(storedPath)

	if err := m.blobs.Delete(storedPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = models.ErrFileNotFound
		}
		return models.NewVaultError(models.ErrCodeStorage, "remove", storedPath, err)
	}

	if err := m.meta.Delete(vaultDir, storedName); err != nil && !errors.Is(err, metadata.ErrEntryNotFound) {
		logger.WithError(err).Warn("Artifact removed but metadata entry remains")
	}

	logger.WithField("stored_name", storedName).Info("File removed")
	return nil
}

// resolveStoredName picks the first free stored name for filename:
// <base>.vault, then <base>_1.vault, <base>_2.vault and so on.
func (m *Manager) resolveStoredName(vaultDir, filename string) (string, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	candidate := base + models.VaultExt
	for counter := 1; ; counter++ {
		exists, err := m.blobs.Exists(filepath.Join(vaultDir, candidate))
		if err != nil {
			return "", fmt.Errorf("check stored name: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, models.VaultExt)
	}
}
