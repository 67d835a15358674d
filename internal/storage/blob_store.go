package storage

import (
	"os"
	"time"
)

// BlobStore manages local file operations.
type BlobStore interface {
	// Write saves data to a file path atomically.
	Write(path string, data []byte, mode os.FileMode) error

	// Read retrieves file contents.
	Read(path string) ([]byte, error)

	// Delete removes a file.
	Delete(path string) error

	// Exists checks if a file exists.
	Exists(path string) (bool, error)

	// Stat returns file information.
	Stat(path string) (FileInfo, error)

	// EnsureDir creates a directory if it doesn't exist.
	EnsureDir(path string) error

	// ListDir returns directory contents. Entries whose stat failed are
	// included with a negative Size rather than dropped.
	ListDir(path string) ([]FileInfo, error)
}

// FileInfo contains file metadata.
type FileInfo struct {
	Path    string
	Size    int64 // -1 when the stat failed
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}
