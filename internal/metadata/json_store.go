package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/secretvault/filevault/internal/events"
	"github.com/secretvault/filevault/internal/models"
)

// JSONStore persists one file_info.json document per vault directory.
// This is the compatibility format: archives written by older releases
// are readable as-is.
type JSONStore struct {
	logger *events.Logger

	// Serializes the read-merge-write cycle. A lost update is otherwise
	// possible when two stores race on the same document.
	mu sync.Mutex
}

// NewJSONStore creates a JSON-backed metadata store.
func NewJSONStore(logger *events.Logger) *JSONStore {
	return &JSONStore{
		logger: logger.WithField("component", "json_metadata_store"),
	}
}

// Load reads the mapping for a vault directory. Absent or corrupt
// documents are treated as empty; corruption is logged, not surfaced.
func (s *JSONStore) Load(vaultDir string) (map[string]models.FileMetadata, error) {
	return s.load(vaultDir), nil
}

func (s *JSONStore) load(vaultDir string) map[string]models.FileMetadata {
	path := s.metadataPath(vaultDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to read metadata file")
		}
		return make(map[string]models.FileMetadata)
	}

	var mapping map[string]models.FileMetadata
	if err := json.Unmarshal(data, &mapping); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Metadata file is corrupt, treating as empty")
		return make(map[string]models.FileMetadata)
	}

	if mapping == nil {
		mapping = make(map[string]models.FileMetadata)
	}
	return mapping
}

// Upsert sets the entry for storedName and writes the full document back.
func (s *JSONStore) Upsert(vaultDir, storedName string, meta models.FileMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := s.load(vaultDir)
	mapping[storedName] = meta

	if err := s.save(vaultDir, mapping); err != nil {
		return &models.MetadataError{VaultDir: vaultDir, Op: "upsert", Err: err}
	}
	return nil
}

// Delete removes the entry for storedName.
func (s *JSONStore) Delete(vaultDir, storedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := s.load(vaultDir)
	if _, ok := mapping[storedName]; !ok {
		return ErrEntryNotFound
	}
	delete(mapping, storedName)

	if err := s.save(vaultDir, mapping); err != nil {
		return &models.MetadataError{VaultDir: vaultDir, Op: "delete", Err: err}
	}
	return nil
}

// LookupOriginalName resolves a display name with the orphan fallback.
func (s *JSONStore) LookupOriginalName(vaultDir, storedName string) string {
	mapping := s.load(vaultDir)
	if meta, ok := mapping[storedName]; ok && meta.OriginalName != "" {
		return meta.OriginalName
	}
	return models.DisplayNameFallback(storedName)
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save(vaultDir string, mapping map[string]models.FileMetadata) error {
	path := s.metadataPath(vaultDir)

	s.logger.WithFields(map[string]interface{}{
		"path":    path,
		"entries": len(mapping),
	}).Debug("Saving metadata")

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := os.MkdirAll(vaultDir, 0700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	// Write atomically
	tmpPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if file, err := os.Open(tmpPath); err == nil {
		_ = file.Sync()
		file.Close()
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename metadata file: %w", err)
	}

	return nil
}

func (s *JSONStore) metadataPath(vaultDir string) string {
	return filepath.Join(vaultDir, MetadataFileName)
}
