// Package crypto provides the primitives behind the credential vault:
// AES-256-GCM sealing bound to a Purpose, and Argon2id key derivation.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	KeySize   = 32 // AES-256
	NonceSize = 12
	TagSize   = 16
	SaltSize  = 16

	// maxMemoryKiB caps Argon2id memory read from a stored vault record, so a
	// corrupted record cannot make unlock allocate unbounded memory.
	maxMemoryKiB = 4 * 1024 * 1024
)

// Purpose is authenticated as GCM associated data. A ciphertext only opens
// under the purpose it was sealed for, so a wrapped key cannot be passed off
// as a credential or the other way round.
type Purpose string

const (
	PurposeVerifier   Purpose = "launchpad/verifier/v1"
	PurposeKeyWrap    Purpose = "launchpad/key-wrap/v1"
	PurposeCredential Purpose = "launchpad/credential/v1"
)

var (
	ErrInvalidKeySize    = errors.New("key must be 32 bytes")
	ErrInvalidCiphertext = errors.New("malformed ciphertext")
	// ErrDecryptionFailed covers a wrong key, tampering and a purpose mismatch.
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
	ErrInvalidSaltSize  = errors.New("salt must be 16 bytes")
	ErrInvalidParams    = errors.New("invalid key derivation parameters")
)

// KDFParams are the Argon2id cost parameters. They are persisted next to the
// salt so a vault keeps unlocking after the defaults change.
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"` // KiB
	Threads uint8  `json:"threads"`
}

// DefaultKDFParams returns the parameters used for newly created vaults.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// Encrypt seals plaintext for purpose with AES-256-GCM.
// Layout: nonce || ciphertext || tag.
func Encrypt(key, plaintext []byte, purpose Purpose) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, []byte(purpose)), nil
}

// Decrypt opens a value Encrypt sealed for the same purpose.
func Decrypt(key, ciphertext []byte, purpose Purpose) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := gcm.Open(nil, ciphertext[:NonceSize], ciphertext[NonceSize:], []byte(purpose))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// GenerateKey returns a random data key.
func GenerateKey() ([]byte, error) { return random(KeySize) }

// GenerateSalt returns a random KDF salt.
func GenerateSalt() ([]byte, error) { return random(SaltSize) }

func random(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

// Validate rejects zero costs and memory above the supported ceiling.
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return ErrInvalidParams
	}
	if p.Memory > maxMemoryKiB {
		return fmt.Errorf("%w: memory %d KiB exceeds %d", ErrInvalidParams, p.Memory, maxMemoryKiB)
	}
	return nil
}

// DeriveKey derives a key-encryption key from password with Argon2id.
func DeriveKey(password, salt []byte, params KDFParams) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, ErrInvalidSaltSize
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(password, salt, params.Time, params.Memory, params.Threads, KeySize), nil
}

// EncryptString seals a credential and returns it base64 encoded, the form
// kept in the store.
func EncryptString(key []byte, plaintext string) (string, error) {
	ciphertext, err := Encrypt(key, []byte(plaintext), PurposeCredential)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString opens a credential produced by EncryptString. Bad base64 is
// ErrInvalidCiphertext.
func DecryptString(key []byte, encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", ErrInvalidCiphertext)
	}

	plaintext, err := Decrypt(key, ciphertext, PurposeCredential)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Equal compares two secrets in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ZeroBytes overwrites b with zeros.
func ZeroBytes(b []byte) {
	clear(b)
}
