package metadata

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/secretvault/filevault/internal/events"
	"github.com/secretvault/filevault/internal/models"
)

// SQLiteStore keeps all name mappings in a single index database instead
// of per-directory JSON documents. Vault directories written through this
// backend carry no file_info.json.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger

	mu sync.Mutex
}

// NewSQLiteStore creates a SQLite-backed metadata store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_metadata_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS vault_files (
        vault_dir TEXT NOT NULL,
        stored_name TEXT NOT NULL,
        original_name TEXT NOT NULL,
        original_ext TEXT NOT NULL DEFAULT '',
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (vault_dir, stored_name)
    );

    CREATE INDEX IF NOT EXISTS idx_vault_files_dir ON vault_files(vault_dir);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Load returns the full mapping for a vault directory.
func (s *SQLiteStore) Load(vaultDir string) (map[string]models.FileMetadata, error) {
	mapping := make(map[string]models.FileMetadata)

	rows, err := s.db.Query(`
        SELECT stored_name, original_name, original_ext
        FROM vault_files
        WHERE vault_dir = ?
    `, normalizeDir(vaultDir))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to query metadata index")
		return mapping, nil
	}
	defer rows.Close()

	for rows.Next() {
		var storedName string
		var meta models.FileMetadata
		if err := rows.Scan(&storedName, &meta.OriginalName, &meta.OriginalExt); err != nil {
			s.logger.WithError(err).Warn("Failed to scan metadata row")
			continue
		}
		mapping[storedName] = meta
	}

	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Warn("Metadata index iteration failed")
	}

	return mapping, nil
}

// Upsert sets or overwrites the entry for storedName.
func (s *SQLiteStore) Upsert(vaultDir, storedName string, meta models.FileMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
        INSERT INTO vault_files (vault_dir, stored_name, original_name, original_ext, updated_at)
        VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(vault_dir, stored_name) DO UPDATE SET
            original_name = excluded.original_name,
            original_ext = excluded.original_ext,
            updated_at = CURRENT_TIMESTAMP
    `, normalizeDir(vaultDir), storedName, meta.OriginalName, meta.OriginalExt)
	if err != nil {
		return &models.MetadataError{VaultDir: vaultDir, Op: "upsert", Err: err}
	}

	return nil
}

// Delete removes the entry for storedName.
func (s *SQLiteStore) Delete(vaultDir, storedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
        DELETE FROM vault_files WHERE vault_dir = ? AND stored_name = ?
    `, normalizeDir(vaultDir), storedName)
	if err != nil {
		return &models.MetadataError{VaultDir: vaultDir, Op: "delete", Err: err}
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// LookupOriginalName resolves a display name with the orphan fallback.
func (s *SQLiteStore) LookupOriginalName(vaultDir, storedName string) string {
	var originalName string
	err := s.db.QueryRow(`
        SELECT original_name FROM vault_files
        WHERE vault_dir = ? AND stored_name = ?
    `, normalizeDir(vaultDir), storedName).Scan(&originalName)
	if err != nil || originalName == "" {
		return models.DisplayNameFallback(storedName)
	}
	return originalName
}

// Close releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// normalizeDir keys rows by cleaned absolute path so the same directory
// reached through different spellings maps to one row set.
func normalizeDir(vaultDir string) string {
	if abs, err := filepath.Abs(vaultDir); err == nil {
		return abs
	}
	return filepath.Clean(vaultDir)
}
