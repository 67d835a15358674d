package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeKeyDerivation = "KEY_DERIVATION_ERROR"
	ErrCodeEncryption    = "ENCRYPTION_ERROR"
	ErrCodeDecryption    = "DECRYPTION_ERROR"
	ErrCodeMetadata      = "METADATA_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeConfig        = "CONFIG_ERROR"
)

// Sentinel errors
var (
	ErrFileNotFound     = errors.New("vault file not found")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrEmptyPIN         = errors.New("PIN must not be empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// VaultError provides detailed vault operation failure information.
type VaultError struct {
	Code string
	Op   string
	Path string
	Err  error
}

func (e *VaultError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vault %s [%s]: %s: %v", e.Op, e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("vault %s [%s]: %v", e.Op, e.Code, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// NewVaultError wraps err with an operation and error code.
func NewVaultError(code, op, path string, err error) *VaultError {
	return &VaultError{Code: code, Op: op, Path: path, Err: err}
}

// DecryptError represents a decryption failure. Wrong PIN and corrupted
// ciphertext are deliberately indistinguishable.
type DecryptError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecryptError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decrypt %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("decrypt: %s: %v", e.Reason, e.Err)
}

func (e *DecryptError) Unwrap() error {
	return e.Err
}

// MetadataError represents a metadata store failure.
type MetadataError struct {
	VaultDir string
	Op       string
	Err      error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata %s: %s: %v", e.Op, e.VaultDir, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
