package vault_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secretvault/filevault/internal/crypto"
	"github.com/secretvault/filevault/internal/events"
	"github.com/secretvault/filevault/internal/metadata"
	"github.com/secretvault/filevault/internal/models"
	"github.com/secretvault/filevault/internal/storage"
	"github.com/secretvault/filevault/internal/vault"
)

func newTestManager(t *testing.T) (*vault.Manager, string) {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	tempDir := filepath.Join(t.TempDir(), "temp")
	manager := vault.NewManager(
		crypto.NewProvider(),
		metadata.NewJSONStore(logger),
		storage.NewLocalStore(logger),
		tempDir,
		logger,
	)
	return manager, tempDir
}

func writeSource(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestManager_StoreAndRetrieve(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	payload := []byte("quarterly numbers, very secret")
	source := writeSource(t, "report.pdf", payload)

	result, err := manager.Store(ctx, source, vaultDir, "report.pdf", "1234")
	require.NoError(t, err)
	assert.Equal(t, "report.vault", result.StoredName)
	assert.True(t, strings.HasSuffix(result.StoredPath, ".vault"))
	assert.Greater(t, result.SizeBytes, int64(len(payload)), "ciphertext carries nonce and tag")

	// Ciphertext on disk, not plaintext
	stored, err := os.ReadFile(result.StoredPath)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "quarterly numbers")

	tempPath, err := manager.RetrieveForViewing(ctx, result.StoredPath, "1234")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(tempPath), "report.pdf")

	decrypted, err := os.ReadFile(tempPath)
	require.NoError(t, err)
	assert.Equal(t, payload, decrypted)
}

func TestManager_ContextLogger(t *testing.T) {
	manager, _ := newTestManager(t)
	vaultDir := filepath.Join(t.TempDir(), "documents")

	var buf bytes.Buffer
	opLogger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	ctx := events.WithLogger(context.Background(), opLogger)
	ctx = events.WithVaultDir(ctx, vaultDir)

	source := writeSource(t, "report.pdf", []byte("data"))
	_, err := manager.Store(ctx, source, vaultDir, "report.pdf", "1234")
	require.NoError(t, err)

	// Operation logs flow through the context-carried logger, tagged
	// with the vault directory.
	output := buf.String()
	assert.Contains(t, output, `"File stored"`)
	assert.Contains(t, output, `"vault_dir":"`+vaultDir+`"`)
}

func TestManager_RetrieveWrongPIN(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	source := writeSource(t, "report.pdf", []byte("data"))
	result, err := manager.Store(ctx, source, vaultDir, "report.pdf", "1234")
	require.NoError(t, err)

	_, err = manager.RetrieveForViewing(ctx, result.StoredPath, "0000")
	require.Error(t, err)

	var decryptErr *models.DecryptError
	assert.True(t, errors.As(err, &decryptErr))
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestManager_RetrieveMissingFile(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.RetrieveForViewing(context.Background(), filepath.Join(t.TempDir(), "absent.vault"), "1234")
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestManager_CollisionSuffixes(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "photos")

	var storedNames []string
	for i := 0; i < 3; i++ {
		source := writeSource(t, "photo.jpg", []byte{byte(i)})
		result, err := manager.Store(ctx, source, vaultDir, "photo.jpg", "1234")
		require.NoError(t, err)
		storedNames = append(storedNames, result.StoredName)
	}

	assert.Equal(t, []string{"photo.vault", "photo_1.vault", "photo_2.vault"}, storedNames)

	entries, err := manager.List(ctx, vaultDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, "photo.jpg", entry.DisplayName)
	}
}

func TestManager_List(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	t.Run("missing directory", func(t *testing.T) {
		entries, err := manager.List(ctx, filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	source := writeSource(t, "notes.txt", []byte("some notes"))
	result, err := manager.Store(ctx, source, vaultDir, "notes.txt", "1234")
	require.NoError(t, err)

	t.Run("stored file listed with display name", func(t *testing.T) {
		entries, err := manager.List(ctx, vaultDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "notes.txt", entries[0].DisplayName)
		assert.Equal(t, result.StoredPath, entries[0].StoredPath)
		assert.Equal(t, result.SizeBytes, entries[0].SizeBytes)
	})

	t.Run("orphan artifact gets fallback name", func(t *testing.T) {
		orphan := filepath.Join(vaultDir, "stray.vault")
		require.NoError(t, os.WriteFile(orphan, []byte("not real ciphertext"), 0600))

		entries, err := manager.List(ctx, vaultDir)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		names := make(map[string]bool)
		for _, entry := range entries {
			names[entry.DisplayName] = true
		}
		assert.True(t, names["stray"], "orphan must be listed under its stripped name")
	})

	t.Run("corrupt metadata falls back, never fails", func(t *testing.T) {
		metaPath := filepath.Join(vaultDir, metadata.MetadataFileName)
		require.NoError(t, os.WriteFile(metaPath, []byte("garbage{{{"), 0600))

		entries, err := manager.List(ctx, vaultDir)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		names := make(map[string]bool)
		for _, entry := range entries {
			names[entry.DisplayName] = true
		}
		assert.True(t, names["notes"], "metadata loss degrades to stripped names")
	})

	t.Run("non-vault files ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "readme.txt"), []byte("x"), 0600))

		entries, err := manager.List(ctx, vaultDir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

// vanishingStore reports one extra artifact whose stat failed, as happens
// when a file is deleted between the directory read and the stat.
type vanishingStore struct {
	storage.BlobStore
}

func (s vanishingStore) ListDir(path string) ([]storage.FileInfo, error) {
	infos, err := s.BlobStore.ListDir(path)
	if err != nil {
		return nil, err
	}
	return append(infos, storage.FileInfo{
		Path: filepath.Join(path, "ghost.vault"),
		Size: -1,
	}), nil
}

func TestManager_ListSkipsVanishedEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	manager := vault.NewManager(
		crypto.NewProvider(),
		metadata.NewJSONStore(logger),
		vanishingStore{storage.NewLocalStore(logger)},
		filepath.Join(t.TempDir(), "temp"),
		logger,
	)

	source := writeSource(t, "notes.txt", []byte("some notes"))
	_, err := manager.Store(ctx, source, vaultDir, "notes.txt", "1234")
	require.NoError(t, err)

	entries, err := manager.List(ctx, vaultDir)
	require.NoError(t, err, "a vanished entry must not fail the listing")
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].DisplayName)

	assert.Contains(t, buf.String(), "Skipped unreadable vault entries")
}

func TestManager_Remove(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	source := writeSource(t, "doomed.txt", []byte("delete me"))
	result, err := manager.Store(ctx, source, vaultDir, "doomed.txt", "1234")
	require.NoError(t, err)

	require.NoError(t, manager.Remove(ctx, result.StoredPath))

	_, err = os.Stat(result.StoredPath)
	assert.True(t, os.IsNotExist(err))

	entries, err := manager.List(ctx, vaultDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = manager.Remove(ctx, result.StoredPath)
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestManager_KeyInfoPersistsAcrossInstances(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	ctx := context.Background()
	tempDir := filepath.Join(t.TempDir(), "temp")
	vaultDir := filepath.Join(t.TempDir(), "documents")

	first := vault.NewManager(
		crypto.NewProvider(),
		metadata.NewJSONStore(logger),
		storage.NewLocalStore(logger),
		tempDir,
		logger,
	)

	payload := []byte("survives restarts")
	source := writeSource(t, "file.txt", payload)
	result, err := first.Store(ctx, source, vaultDir, "file.txt", "1234")
	require.NoError(t, err)

	// New vaults get a per-vault salt persisted next to the metadata
	_, err = os.Stat(filepath.Join(vaultDir, vault.KeyInfoFileName))
	require.NoError(t, err)

	// A fresh manager reloads the salt from disk
	second := vault.NewManager(
		crypto.NewProvider(),
		metadata.NewJSONStore(logger),
		storage.NewLocalStore(logger),
		tempDir,
		logger,
	)

	tempPath, err := second.RetrieveForViewing(ctx, result.StoredPath, "1234")
	require.NoError(t, err)

	decrypted, err := os.ReadFile(tempPath)
	require.NoError(t, err)
	assert.Equal(t, payload, decrypted)
}

func TestManager_LegacyKeyInfo(t *testing.T) {
	manager, _ := newTestManager(t)
	manager.SetLegacyKeyInfo(true)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	source := writeSource(t, "old.txt", []byte("legacy mode"))
	result, err := manager.Store(ctx, source, vaultDir, "old.txt", "1234")
	require.NoError(t, err)

	// Legacy vaults carry no key info file; absence selects the fixed salt
	_, err = os.Stat(filepath.Join(vaultDir, vault.KeyInfoFileName))
	assert.True(t, os.IsNotExist(err))

	tempPath, err := manager.RetrieveForViewing(ctx, result.StoredPath, "1234")
	require.NoError(t, err)

	decrypted, err := os.ReadFile(tempPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy mode"), decrypted)
}

func TestManager_ExistingLegacyVaultStaysLegacy(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	// First store in legacy mode, simulating an archive from an older
	// release: artifacts exist, no key info file.
	manager.SetLegacyKeyInfo(true)
	source := writeSource(t, "old.txt", []byte("old data"))
	oldResult, err := manager.Store(ctx, source, vaultDir, "old.txt", "1234")
	require.NoError(t, err)

	// A later store with salted keys enabled must not mint a salt that
	// would orphan the existing ciphertext.
	manager.SetLegacyKeyInfo(false)
	source2 := writeSource(t, "new.txt", []byte("new data"))
	_, err = manager.Store(ctx, source2, vaultDir, "new.txt", "1234")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(vaultDir, vault.KeyInfoFileName))
	assert.True(t, os.IsNotExist(err))

	tempPath, err := manager.RetrieveForViewing(ctx, oldResult.StoredPath, "1234")
	require.NoError(t, err)

	decrypted, err := os.ReadFile(tempPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("old data"), decrypted)
}

func TestManager_StoreErrors(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "documents")

	t.Run("missing source", func(t *testing.T) {
		_, err := manager.Store(ctx, filepath.Join(t.TempDir(), "absent.txt"), vaultDir, "absent.txt", "1234")
		require.Error(t, err)

		var vaultErr *models.VaultError
		require.True(t, errors.As(err, &vaultErr))
		assert.Equal(t, models.ErrCodeStorage, vaultErr.Code)
	})

	t.Run("empty PIN", func(t *testing.T) {
		source := writeSource(t, "file.txt", []byte("x"))
		_, err := manager.Store(ctx, source, vaultDir, "file.txt", "")
		require.Error(t, err)

		var vaultErr *models.VaultError
		require.True(t, errors.As(err, &vaultErr))
		assert.Equal(t, models.ErrCodeKeyDerivation, vaultErr.Code)
		assert.ErrorIs(t, err, models.ErrEmptyPIN)
	})
}

func TestManager_ConcurrentViewsDoNotClobber(t *testing.T) {
	manager, tempDir := newTestManager(t)
	ctx := context.Background()
	vaultDir := filepath.Join(t.TempDir(), "photos")

	// Two different files sharing one display name
	sourceA := writeSource(t, "photo.jpg", []byte("first photo"))
	sourceB := writeSource(t, "photo.jpg", []byte("second photo"))

	resultA, err := manager.Store(ctx, sourceA, vaultDir, "photo.jpg", "1234")
	require.NoError(t, err)
	resultB, err := manager.Store(ctx, sourceB, vaultDir, "photo.jpg", "1234")
	require.NoError(t, err)

	pathA, err := manager.RetrieveForViewing(ctx, resultA.StoredPath, "1234")
	require.NoError(t, err)
	pathB, err := manager.RetrieveForViewing(ctx, resultB.StoredPath, "1234")
	require.NoError(t, err)

	assert.NotEqual(t, pathA, pathB)
	assert.Equal(t, tempDir, filepath.Dir(pathA))

	dataA, err := os.ReadFile(pathA)
	require.NoError(t, err)
	dataB, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, []byte("first photo"), dataA)
	assert.Equal(t, []byte("second photo"), dataB)
}
