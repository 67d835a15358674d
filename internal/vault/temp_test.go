package vault_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SweepTemp(t *testing.T) {
	manager, tempDir := newTestManager(t)
	require.NoError(t, os.MkdirAll(tempDir, 0700))

	oldPath := filepath.Join(tempDir, "a1b2c3d4_old.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("stale plaintext"), 0600))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	freshPath := filepath.Join(tempDir, "e5f6a7b8_fresh.txt")
	require.NoError(t, os.WriteFile(freshPath, []byte("still viewing"), 0600))

	removed, err := manager.SweepTemp(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(freshPath)
	assert.NoError(t, err, "files newer than the cutoff must survive")
}

func TestManager_SweepTempMissingDir(t *testing.T) {
	manager, _ := newTestManager(t)

	removed, err := manager.SweepTemp(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
