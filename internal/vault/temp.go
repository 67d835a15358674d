package vault

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// SweepTemp deletes decrypted-for-viewing files older than maxAge from
// the manager's temp directory and returns how many were removed.
// Decrypted plaintext otherwise accumulates on disk across sessions.
func (m *Manager) SweepTemp(ctx context.Context, maxAge time.Duration) (int, error) {
	logger := m.opLogger(ctx)
	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(m.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.WithError(err).WithField("path", path).Warn("Failed to remove temp file")
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.WithField("removed", removed).Info("Swept temp files")
	}

	return removed, nil
}

// TempDir returns the directory holding decrypted-for-viewing files.
func (m *Manager) TempDir() string {
	return m.tempDir
}
