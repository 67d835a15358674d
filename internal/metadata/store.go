package metadata

import (
	"errors"

	"github.com/secretvault/filevault/internal/models"
)

// MetadataFileName is the per-directory JSON metadata document.
const MetadataFileName = "file_info.json"

// Store maps stored (obfuscated) filenames back to their original names,
// per vault directory. Implementations are safe for concurrent use within
// a single process; cross-process concurrent writers are unsupported.
type Store interface {
	// Load returns the full mapping for a vault directory. A missing or
	// unparsable document yields an empty mapping, never an error.
	Load(vaultDir string) (map[string]models.FileMetadata, error)

	// Upsert sets or overwrites the entry for storedName.
	Upsert(vaultDir, storedName string, meta models.FileMetadata) error

	// Delete removes the entry for storedName.
	Delete(vaultDir, storedName string) error

	// LookupOriginalName resolves the display name for storedName,
	// falling back to the stored name with the marker stripped when no
	// entry exists.
	LookupOriginalName(vaultDir, storedName string) string

	// Close releases resources.
	Close() error
}

// ErrEntryNotFound is returned by Delete for absent entries.
var ErrEntryNotFound = errors.New("metadata entry not found")
