package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

var (
	ErrMasterKeyNotSet   = errors.New("master key not set in environment")
	ErrInvalidMasterKey  = errors.New("invalid master key: must be 32 bytes, base64 encoded")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short")
)

// Sealer encrypts platform API secrets at rest with AES-256-GCM under the
// master key. Ciphertexts are base64(nonce + ciphertext + tag).
type Sealer struct {
	masterKey []byte
}

// NewSealer reads the master key from the MASTER_KEY environment variable
// (base64, 32 bytes decoded).
func NewSealer() (*Sealer, error) {
	encoded := os.Getenv("MASTER_KEY")
	if encoded == "" {
		return nil, ErrMasterKeyNotSet
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidMasterKey
	}

	return &Sealer{masterKey: key}, nil
}

// NewSealerWithKey builds a Sealer from a raw 32-byte key. Used by tests.
func NewSealerWithKey(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, ErrInvalidMasterKey
	}
	return &Sealer{masterKey: key}, nil
}

// Seal encrypts a secret for storage.
func (s *Sealer) Seal(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a stored secret.
func (s *Sealer) Open(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.masterKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
