package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Payload layout inside the base64 body: salt ‖ iv ‖ auth tag ‖ ciphertext.
const (
	// KMSPrefix marks a locally-encrypted secret reference
	KMSPrefix = "local-kms://"

	saltSize = 64
	ivSize   = 16
	tagSize  = 16

	// PBKDF2-SHA512 iteration count. Changing this invalidates every
	// stored secret, so treat it as frozen.
	pbkdf2Iterations = 210000

	keySize = 32 // AES-256
)

// KMSService encrypts small secrets (API tokens, credentials) at rest.
// Every stored value is self-contained: the salt travels with the
// ciphertext, so only the master passphrase is shared state.
type KMSService struct {
	masterKey []byte
}

// NewKMSService creates a KMS service from a hex-encoded 32-byte master key
func NewKMSService(masterKeyHex string) (*KMSService, error) {
	if masterKeyHex == "" {
		return nil, errors.New("encryption master key is required")
	}

	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid master key format (must be hex): %w", err)
	}

	if len(masterKey) != keySize {
		return nil, fmt.Errorf("master key must be %d bytes (%d hex characters), got %d bytes", keySize, keySize*2, len(masterKey))
	}

	return &KMSService{masterKey: masterKey}, nil
}

// deriveKey stretches the master key with a per-secret salt
func (k *KMSService) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(k.masterKey, salt, pbkdf2Iterations, keySize, sha512.New)
}

// Encrypt seals a plaintext secret into a local-kms reference string.
// Empty plaintext is an error: callers must not store empty secrets.
func (k *KMSService) Encrypt(plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", errors.New("refusing to encrypt empty plaintext")
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(k.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// Seal appends the auth tag after the ciphertext; the stored layout
	// wants it before, so split and reorder.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	if len(sealed) < tagSize {
		return "", errors.New("sealed payload shorter than auth tag")
	}
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	payload := make([]byte, 0, saltSize+ivSize+tagSize+len(ciphertext))
	payload = append(payload, salt...)
	payload = append(payload, iv...)
	payload = append(payload, tag...)
	payload = append(payload, ciphertext...)

	return KMSPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt opens a local-kms reference string back into the plaintext secret.
// Any malformed or tampered input is a hard error, never a silent fallback.
func (k *KMSService) Decrypt(reference string) ([]byte, error) {
	if !strings.HasPrefix(reference, KMSPrefix) {
		return nil, fmt.Errorf("not a local-kms reference")
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(reference, KMSPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	if len(payload) < saltSize+ivSize+tagSize {
		return nil, errors.New("payload too short")
	}

	salt := payload[:saltSize]
	iv := payload[saltSize : saltSize+ivSize]
	tag := payload[saltSize+ivSize : saltSize+ivSize+tagSize]
	ciphertext := payload[saltSize+ivSize+tagSize:]

	block, err := aes.NewCipher(k.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// EncryptString is a convenience wrapper for string secrets
func (k *KMSService) EncryptString(plaintext string) (string, error) {
	return k.Encrypt([]byte(plaintext))
}

// DecryptString is a convenience wrapper returning the secret as a string
func (k *KMSService) DecryptString(reference string) (string, error) {
	plaintext, err := k.Decrypt(reference)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsReference reports whether a stored value is a local-kms reference
func IsReference(s string) bool {
	return strings.HasPrefix(s, KMSPrefix)
}

// GenerateMasterKey generates a new random 32-byte master key (for setup)
func GenerateMasterKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
