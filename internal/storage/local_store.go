package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/secretvault/filevault/internal/events"
)

// LocalStore implements BlobStore over the local filesystem. Paths are
// taken as supplied by the caller; the vault directory policy lives with
// the Provider, not here.
type LocalStore struct {
	logger *events.Logger

	allowSymlinks bool
	maxFileSize   int64
}

// NewLocalStore creates a local file store.
func NewLocalStore(logger *events.Logger) *LocalStore {
	return &LocalStore{
		logger:        logger.WithField("component", "local_store"),
		allowSymlinks: false,
		maxFileSize:   100 * 1024 * 1024, // 100MB default
	}
}

// SetMaxFileSize sets the maximum file size limit.
func (s *LocalStore) SetMaxFileSize(size int64) {
	s.maxFileSize = size
}

// Write saves data to a file atomically: the payload lands in a temp file
// next to the destination and is renamed into place, so a failed write
// never leaves a truncated destination behind.
func (s *LocalStore) Write(path string, data []byte, mode os.FileMode) error {
	safePath, err := s.validatePath(path)
	if err != nil {
		return fmt.Errorf("validate path: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path": path,
		"size": len(data),
	}).Debug("Writing file")

	if int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d)", len(data), s.maxFileSize)
	}

	if err := os.MkdirAll(filepath.Dir(safePath), 0700); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", safePath, time.Now().UnixNano())

	if err := os.WriteFile(tempPath, data, mode); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	// Sync to disk before renaming
	if file, err := os.Open(tempPath); err == nil {
		_ = file.Sync()
		file.Close()
	}

	if err := os.Rename(tempPath, safePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Read retrieves file contents.
func (s *LocalStore) Read(path string) ([]byte, error) {
	safePath, err := s.validatePath(path)
	if err != nil {
		return nil, fmt.Errorf("validate path: %w", err)
	}

	if !s.allowSymlinks {
		stat, err := os.Lstat(safePath)
		if err == nil && stat.Mode()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("symlinks not allowed: %s", path)
		}
	}

	data, err := os.ReadFile(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// Delete removes a file.
func (s *LocalStore) Delete(path string) error {
	safePath, err := s.validatePath(path)
	if err != nil {
		return fmt.Errorf("validate path: %w", err)
	}

	s.logger.WithField("path", path).Debug("Deleting file")

	if err := os.Remove(safePath); err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("delete file: %w", err)
	}

	return nil
}

// Exists checks if a file exists.
func (s *LocalStore) Exists(path string) (bool, error) {
	safePath, err := s.validatePath(path)
	if err != nil {
		return false, fmt.Errorf("validate path: %w", err)
	}

	_, err = os.Stat(safePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Stat returns file information.
func (s *LocalStore) Stat(path string) (FileInfo, error) {
	safePath, err := s.validatePath(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("validate path: %w", err)
	}

	stat, err := os.Lstat(safePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat file: %w", err)
	}

	return FileInfo{
		Path:    path,
		Size:    stat.Size(),
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
		IsDir:   stat.IsDir(),
	}, nil
}

// EnsureDir creates a directory if it doesn't exist.
func (s *LocalStore) EnsureDir(path string) error {
	safePath, err := s.validatePath(path)
	if err != nil {
		return fmt.Errorf("validate path: %w", err)
	}

	return os.MkdirAll(safePath, 0700)
}

// ListDir returns directory contents.
func (s *LocalStore) ListDir(path string) ([]FileInfo, error) {
	safePath, err := s.validatePath(path)
	if err != nil {
		return nil, fmt.Errorf("validate path: %w", err)
	}

	entries, err := os.ReadDir(safePath)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// The entry vanished between the directory read and the
			// stat. Surface it with a negative size so callers can
			// count the skip instead of silently losing it.
			files = append(files, FileInfo{
				Path:  filepath.Join(path, entry.Name()),
				Size:  -1,
				IsDir: entry.IsDir(),
			})
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(path, entry.Name()),
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		})
	}

	return files, nil
}

// validatePath normalizes a path and rejects malformed input.
func (s *LocalStore) validatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null bytes")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	return abs, nil
}
