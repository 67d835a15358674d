package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/secretvault/filevault/internal/models"
)

const (
	// Key sizes
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard
	TagSize   = 16 // GCM tag

	// PBKDF2 parameters
	DefaultIterations = 100000
	SaltSize          = 32

	// legacySalt is the fixed application salt used by the legacy
	// derivation mode. Every vault in this mode shares it, so equal PINs
	// produce equal keys across vaults.
	legacySalt = "vault2024"
)

// Errors
var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrInvalidKey        = errors.New("invalid key size")

	// ErrDecryptionFailed is shared with the models package so callers
	// can match it at any layer.
	ErrDecryptionFailed = models.ErrDecryptionFailed
)

// CipherProvider handles all cryptographic operations.
type CipherProvider struct {
	iterations int
}

// NewProvider creates a crypto provider.
func NewProvider() Provider {
	return &CipherProvider{
		iterations: DefaultIterations,
	}
}

// NewSaltedKeyInfo generates key info with a fresh random per-vault salt.
func NewSaltedKeyInfo() (models.KeyInfo, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return models.KeyInfo{}, fmt.Errorf("generate salt: %w", err)
	}

	return models.KeyInfo{
		Version: models.KeyInfoVersionSalted,
		Salt:    base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// LegacyKeyInfo returns key info selecting the fixed-salt derivation.
func LegacyKeyInfo() models.KeyInfo {
	return models.KeyInfo{Version: models.KeyInfoVersionLegacy}
}

// DeriveKey derives a vault key from a user PIN.
func (p *CipherProvider) DeriveKey(pin string, info models.KeyInfo) ([]byte, error) {
	if pin == "" {
		return nil, models.ErrEmptyPIN
	}

	var salt []byte
	switch info.Version {
	case models.KeyInfoVersionLegacy:
		salt = []byte(legacySalt)

	case models.KeyInfoVersionSalted:
		decoded, err := base64.StdEncoding.DecodeString(info.Salt)
		if err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
		if len(decoded) < SaltSize {
			return nil, fmt.Errorf("salt too short: %d bytes", len(decoded))
		}
		salt = decoded

	default:
		return nil, fmt.Errorf("unsupported key info version: %d", info.Version)
	}

	key := pbkdf2.Key([]byte(pin), salt, p.iterations, KeySize, sha256.New)
	return key, nil
}

// EncryptData encrypts plaintext using AES-GCM.
// Returns: nonce || ciphertext+tag
func (p *CipherProvider) EncryptData(plaintext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, NonceSize+len(ciphertext))
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// DecryptData decrypts ciphertext using AES-GCM. Failure is all-or-nothing:
// no partial plaintext is ever returned.
func (p *CipherProvider) DecryptData(ciphertext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	// Minimum size: nonce + tag
	if len(ciphertext) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	nonce := ciphertext[:NonceSize]
	ciphertextWithTag := ciphertext[NonceSize:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertextWithTag, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// ValidateKeySize checks if the key is the correct size.
func ValidateKeySize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("invalid key size: expected %d, got %d", KeySize, len(key))
	}
	return nil
}
