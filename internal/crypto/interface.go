package crypto

import "github.com/secretvault/filevault/internal/models"

// Provider defines the interface for cryptographic operations.
type Provider interface {
	// DeriveKey derives a vault key from a user PIN.
	DeriveKey(pin string, info models.KeyInfo) ([]byte, error)

	// EncryptData encrypts plaintext using AES-GCM.
	EncryptData(plaintext, key []byte) ([]byte, error)

	// DecryptData decrypts ciphertext using AES-GCM.
	DecryptData(ciphertext, key []byte) ([]byte, error)
}
